package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/tmpim/tricolor"
)

var (
	workers = flag.Int("workers", 8, "number of concurrent conversions")
	rounds  = flag.Int("n", 100, "conversions per worker")
	packed  = flag.Bool("frame", false, "also pack and compress a panel frame")
)

func main() {
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: benchmark [options] image")
		os.Exit(1)
	}

	img, _, err := tricolor.Load(flag.Arg(0), 0)
	if err != nil {
		log.WithError(err).Fatal("could not load image")
	}

	wg := new(sync.WaitGroup)
	start := time.Now()

	for w := 0; w < *workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < *rounds; i++ {
				res, err := tricolor.Convert(context.Background(), img, tricolor.Options{})
				if err != nil {
					log.WithError(err).Fatal("conversion failed")
				}

				if *packed {
					f := tricolor.NewFrame(res.Planes)
					f.Compressed = true
					if _, err := f.Bytes(); err != nil {
						log.WithError(err).Fatal("frame encoding failed")
					}
				}
			}
		}()
	}

	wg.Wait()
	took := time.Since(start)
	n := *workers * *rounds

	log.WithFields(log.Fields{
		"conversions": n,
		"took":        took.String(),
		"per_image":   (took / time.Duration(n)).String(),
	}).Info("benchmark complete")
}
