package aur

import (
	"context"
	"net/url"
	"sync"

	"github.com/frederic-klein/pkgquery/internal/pkg"
)

// infoWorkers bounds the info requests in flight.
const infoWorkers = 4

// batchJob is one info request covering names.
type batchJob struct {
	index int
	names []string
}

// batchResult carries the records of one job, or the error it failed with.
type batchResult struct {
	job     batchJob
	records []*pkg.AURPackage
	err     error
}

// splitBatches cuts names into requests of at most size names each.
func splitBatches(names []string, size int) []batchJob {
	var jobs []batchJob
	for start := 0; start < len(names); start += size {
		end := min(start+size, len(names))
		jobs = append(jobs, batchJob{index: len(jobs), names: names[start:end]})
	}
	return jobs
}

// fetchBatches runs the info requests on a pool of workers. Results come
// back indexed by job, so the caller sees them in request order.
func (c *Client) fetchBatches(ctx context.Context, jobs []batchJob) []batchResult {
	jobChan := make(chan batchJob, len(jobs))
	resultChan := make(chan batchResult, len(jobs))

	var wg sync.WaitGroup
	for i := 0; i < min(infoWorkers, len(jobs)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobChan {
				records, err := c.info(ctx, job.names)
				resultChan <- batchResult{job: job, records: records, err: err}
			}
		}()
	}

	for _, job := range jobs {
		jobChan <- job
	}
	close(jobChan)

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	results := make([]batchResult, len(jobs))
	for r := range resultChan {
		results[r.job.index] = r
	}
	return results
}

func (c *Client) info(ctx context.Context, names []string) ([]*pkg.AURPackage, error) {
	q := url.Values{}
	q.Set("v", "5")
	q.Set("type", "info")
	for _, name := range names {
		q.Add("arg[]", name)
	}
	return c.call(ctx, q)
}
