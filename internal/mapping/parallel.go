package mapping

import (
	"runtime"
	"sync"

	"github.com/inodb/gapmap/internal/alignment"
)

// Job is one (transcript, sequence) pair waiting to be built. Seq orders the
// job among all jobs of a run.
type Job struct {
	Seq          int
	TranscriptID string
	SequenceID   string
	Records      []*alignment.Record
}

// Result is the mapping built for a Job, or the reason it was abandoned.
type Result struct {
	Seq     int
	Job     Job
	Mapping *Mapping
	Err     error
}

// GroupJobs emits one Job per (transcript, sequence) group of idx, walking
// transcripts in the given order and each transcript's sequences in file
// order. The channel is closed once every group has been sent.
func GroupJobs(idx *alignment.Index, transcripts []string, buffer int) <-chan Job {
	jobs := make(chan Job, buffer)
	go func() {
		defer close(jobs)
		seq := 0
		for _, id := range transcripts {
			for _, g := range idx.Select(id) {
				jobs <- Job{Seq: seq, TranscriptID: g.TranscriptID, SequenceID: g.SequenceID, Records: g.Records}
				seq++
			}
		}
	}()
	return jobs
}

// ParallelBuild runs Build for every job on workers goroutines (NumCPU if
// workers is 0). Results arrive in completion order; OrderedCollect puts
// them back in job order.
func ParallelBuild(jobs <-chan Job, workers int) <-chan Result {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	results := make(chan Result, 2*workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				m, err := Build(job.TranscriptID, job.SequenceID, job.Records)
				results <- Result{Seq: job.Seq, Job: job, Mapping: m, Err: err}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()
	return results
}

// OrderedCollect hands results to fn in Seq order, holding early arrivals
// until their predecessors are in. If fn fails, the remaining results are
// discarded so the workers can finish, and the error is returned.
func OrderedCollect(results <-chan Result, fn func(Result) error) error {
	held := make(map[int]Result)
	next := 0

	for r := range results {
		held[r.Seq] = r
		for {
			ready, ok := held[next]
			if !ok {
				break
			}
			delete(held, next)
			next++
			if err := fn(ready); err != nil {
				for range results {
				}
				return err
			}
		}
	}
	return nil
}
