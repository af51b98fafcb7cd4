package redis_batch

import (
	"context"
	"strconv"

	"github.com/bibassitoula/Impatient/tfidf"
)

// ImportResult writes both output relations into Redis using pipelined
// HSETs, BatchSize commands per round trip. With Replace set, previous
// result keys are removed first.
func ImportResult(ctx context.Context, connCfg ConnConfig, cfg SinkConfig, res *tfidf.Result) error {
	cfg.WithDefaults()
	rdb, err := openRedis(ctx, connCfg)
	if err != nil {
		return err
	}
	defer rdb.Close()

	if cfg.Replace {
		iter := rdb.Scan(ctx, 0, cfg.WeightPrefix+"*", 1000).Iterator()
		for iter.Next(ctx) {
			if err := rdb.Del(ctx, iter.Val()).Err(); err != nil {
				return err
			}
		}
		if err := iter.Err(); err != nil {
			return err
		}
		if err := rdb.Del(ctx, cfg.WordCountKey).Err(); err != nil {
			return err
		}
	}

	pipe := rdb.Pipeline()
	pending := 0
	flush := func() error {
		if pending == 0 {
			return nil
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return err
		}
		pending = 0
		return nil
	}

	for _, w := range res.Weights {
		pipe.HSet(ctx, cfg.WeightPrefix+w.DocID, w.Token,
			strconv.FormatFloat(w.Weight, 'g', -1, 64))
		pending++
		if pending >= cfg.BatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	for _, wc := range res.WordCounts {
		pipe.HSet(ctx, cfg.WordCountKey, wc.Token, strconv.FormatUint(wc.Count, 10))
		pending++
		if pending >= cfg.BatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}
