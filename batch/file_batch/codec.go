// Package file_batch reads token streams from and writes results to
// local TSV files. It also hosts the docs mode, which scrubs raw
// document files into tokens through the tokenize package.
package file_batch

import (
	"strconv"
	"strings"

	"github.com/bibassitoula/Impatient/tfidf"
)

// decodeTokenLine parses one "doc_id\ttoken" line. Lines that do not
// split cleanly come back as zero records so the pipeline counts them as
// malformed input.
func decodeTokenLine(line string) tfidf.TokenOccurrence {
	doc, token, ok := strings.Cut(line, "\t")
	if !ok {
		return tfidf.TokenOccurrence{}
	}
	return tfidf.TokenOccurrence{DocID: doc, Token: token}
}

func encodeWeightLines(rows []tfidf.TfIdfRecord) string {
	if len(rows) == 0 {
		return ""
	}
	var b strings.Builder
	b.Grow(len(rows) * 32)
	for i := range rows {
		b.WriteString(rows[i].Token)
		b.WriteByte('\t')
		b.WriteString(rows[i].DocID)
		b.WriteByte('\t')
		b.WriteString(strconv.FormatFloat(rows[i].Weight, 'g', -1, 64))
		b.WriteByte('\n')
	}
	return b.String()
}

func encodeWordCountLines(rows []tfidf.WordCountRecord) string {
	if len(rows) == 0 {
		return ""
	}
	var b strings.Builder
	b.Grow(len(rows) * 24)
	for i := range rows {
		b.WriteString(rows[i].Token)
		b.WriteByte('\t')
		b.WriteString(strconv.FormatUint(rows[i].Count, 10))
		b.WriteByte('\n')
	}
	return b.String()
}
