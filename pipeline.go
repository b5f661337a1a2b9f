package siedler2

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/bodgit/siedler2/errkind"
)

const (
	scanWorkers = 10
	maxFileSize = 16 << (10 * 2)
)

func (l *Library) findFiles(ctx context.Context, base string) (<-chan string, <-chan error, error) {
	out := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		errc <- filepath.Walk(base, func(file string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			// Ignore any hidden files or directories
			if file != base && info.Name()[0] == '.' {
				if info.Mode().IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			// Ignore anything that isn't a normal file of a known format
			if !info.Mode().IsRegular() || !Supported(file) {
				return nil
			}

			if info.Size() > maxFileSize {
				l.logger.Printf("Skipping \"%s\", too large\n", file)
				return nil
			}

			select {
			case out <- file:
			case <-ctx.Done():
				return errors.New("walk cancelled")
			}

			return nil
		})
	}()
	return out, errc, nil
}

func (l *Library) fileWorker(ctx context.Context, base string, in <-chan string) (<-chan error, error) {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for file := range in {
			select {
			case <-ctx.Done():
				return
			default:
			}

			a, err := l.loader.Load(file)
			if err != nil {
				// A broken file shouldn't stop the rest of the scan
				l.logger.Printf("Skipping \"%s\": %s (%s)\n", file, errkind.Describe(err), err)
				continue
			}

			rel, err := filepath.Rel(base, file)
			if err != nil {
				errc <- err
				return
			}
			rel = filepath.ToSlash(rel)

			for i := 0; i < a.Len(); i++ {
				item := a.Get(i)
				if item == nil {
					continue
				}
				if err := l.catalog.Add(rel, i, item); err != nil {
					errc <- err
					return
				}
			}
		}
	}()
	return errc, nil
}

func waitForPipeline(errs ...<-chan error) error {
	errc := mergeErrors(errs...)
	for err := range errc {
		if err != nil {
			return err
		}
	}
	return nil
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Scan walks path and catalogs every item of every supported file. Files
// that fail to load are logged and skipped. Entries are keyed by the slash
// separated path relative to path.
func (l *Library) Scan(path string) error {
	dir, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	var errcList []<-chan error

	files, errc, err := l.findFiles(ctx, dir)
	if err != nil {
		return err
	}
	errcList = append(errcList, errc)

	for i := 0; i < scanWorkers; i++ {
		errc, err := l.fileWorker(ctx, dir, files)
		if err != nil {
			return err
		}
		errcList = append(errcList, errc)
	}

	return waitForPipeline(errcList...)
}
