package redis_batch

import (
	"context"

	"github.com/bibassitoula/Impatient/tfidf"
)

// ExportTokens SCANs keys matching the configured pattern and reads a
// token record out of each hash. Keys missing either field produce a
// record the pipeline will count as malformed rather than failing the
// export.
func ExportTokens(ctx context.Context, connCfg ConnConfig, cfg SourceConfig) ([]tfidf.TokenOccurrence, error) {
	cfg.WithDefaults()
	rdb, err := openRedis(ctx, connCfg)
	if err != nil {
		return nil, err
	}
	defer rdb.Close()

	var out []tfidf.TokenOccurrence
	iter := rdb.Scan(ctx, 0, cfg.KeyPattern, int64(cfg.ScanCount)).Iterator()
	for iter.Next(ctx) {
		vals, err := rdb.HMGet(ctx, iter.Val(), cfg.DocField, cfg.TokenField).Result()
		if err != nil {
			return nil, err
		}
		var rec tfidf.TokenOccurrence
		if s, ok := vals[0].(string); ok {
			rec.DocID = s
		}
		if s, ok := vals[1].(string); ok {
			rec.Token = s
		}
		out = append(out, rec)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
