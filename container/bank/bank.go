/*
NAME
  bank.go

DESCRIPTION
  bank.go provides the Decoder used to load sample banks into a sample
  cache.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package bank extracts samples from 2DX, S3P and VA3 sample banks and
// decodes BMP backing streams.
package bank

import (
	"sync"
	"sync/atomic"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/bemani/codec/wma"
	"github.com/ausocean/bemani/sample"
)

// Options control a bank load.
type Options struct {
	// Space is ORed into every sample ID.
	Space sample.ID

	// Only selects a single 1-based entry to decode. Zero decodes all.
	Only int

	// Workers is the number of goroutines decoding entries. Values below
	// two decode on the calling goroutine.
	Workers int
}

// Decoder decodes banks into a sample cache.
type Decoder struct {
	tables *wma.Tables
	cache  *sample.Cache
	log    logging.Logger
}

// NewDecoder returns a Decoder storing samples in c. tables may be nil if
// no S3P banks will be loaded.
func NewDecoder(tables *wma.Tables, c *sample.Cache, log logging.Logger) *Decoder {
	return &Decoder{tables: tables, cache: c, log: log}
}

// job decodes one bank entry.
type job struct {
	index  int
	id     sample.ID
	alias  sample.ID // Also stores the sample here if non-zero.
	decode func() (*sample.Decoded, error)
}

// run decodes jobs into the cache and returns the number of samples
// stored. Failed entries are logged and skipped.
func (d *Decoder) run(jobs []job, workers int) int {
	var stored int64
	do := func(j job) {
		s, err := j.decode()
		if err != nil {
			d.log.Warning("skipping sample", "index", j.index, "id", j.id, "error", err)
			return
		}
		d.cache.Insert(j.id, s)
		if j.alias != 0 {
			d.cache.Insert(j.alias, s)
		}
		atomic.AddInt64(&stored, 1)
	}

	if workers < 2 {
		for _, j := range jobs {
			do(j)
		}
		return int(stored)
	}

	ch := make(chan job)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range ch {
				do(j)
			}
		}()
	}
	for _, j := range jobs {
		ch <- j
	}
	close(ch)
	wg.Wait()
	return int(stored)
}
