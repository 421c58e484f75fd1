package ingest

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/viewlens/viewlens/app/database"
	"github.com/viewlens/viewlens/app/fetch"
	"github.com/viewlens/viewlens/app/sheet"
)

// Processor drives one ingestion batch: decode, normalize, resolve, fetch,
// derive, persist. Rows fail independently; the call itself fails only when
// the input file cannot be processed at all.
type Processor struct {
	sheetParser  *sheet.Parser
	normalizer   *Normalizer
	resolver     *Resolver
	fetchers     map[fetch.Platform]fetch.Fetcher
	resultRepo   database.ResultRepository
	workerCount  int
	batchTimeout time.Duration
	historyMode  bool
	defaultCreds fetch.Credentials
}

type ProcessorOptions struct {
	WorkerCount  int
	BatchTimeout time.Duration
	HistoryMode  bool
	Credentials  fetch.Credentials
}

func NewProcessor(fetchers map[fetch.Platform]fetch.Fetcher, resultRepo database.ResultRepository, opts ProcessorOptions) *Processor {
	if opts.WorkerCount <= 0 {
		opts.WorkerCount = 4
	}
	if opts.BatchTimeout <= 0 {
		opts.BatchTimeout = 2 * time.Minute
	}

	return &Processor{
		sheetParser:  sheet.NewParser(),
		normalizer:   NewNormalizer(),
		resolver:     NewResolver(),
		fetchers:     fetchers,
		resultRepo:   resultRepo,
		workerCount:  opts.WorkerCount,
		batchTimeout: opts.BatchTimeout,
		historyMode:  opts.HistoryMode,
		defaultCreds: opts.Credentials,
	}
}

type rowState struct {
	request    *IngestRequest
	identifier fetch.Identifier
	result     *database.Result
	rowErr     *RowError
}

func (p *Processor) Run(ctx context.Context, data []byte, filename string, creds fetch.Credentials) (*BatchSummary, error) {
	rows, err := p.sheetParser.Run(data, filename)
	if err != nil {
		return nil, err
	}

	merged := p.mergeCredentials(creds)

	batchCtx, cancel := context.WithTimeout(ctx, p.batchTimeout)
	defer cancel()

	states := make([]*rowState, len(rows))
	pending := make(map[fetch.Platform][]*rowState)
	for i, row := range rows {
		state := &rowState{}
		states[i] = state

		request, rowErr := p.normalizer.Run(row)
		if rowErr != nil {
			state.rowErr = rowErr
			continue
		}
		state.request = request

		identifier, rowErr := p.resolver.Run(request)
		if rowErr != nil {
			state.rowErr = rowErr
			continue
		}
		state.identifier = identifier
		pending[identifier.Platform] = append(pending[identifier.Platform], state)
	}

	group := new(errgroup.Group)
	for platform, platformRows := range pending {
		fetcher, ok := p.fetchers[platform]
		if !ok {
			for _, state := range platformRows {
				state.rowErr = &RowError{
					RowIndex: state.request.RowIndex,
					Reason:   ReasonUnsupportedPlatform,
					Detail:   fmt.Sprintf("no fetcher configured for platform %q", platform),
				}
			}
			continue
		}

		group.Go(func() error {
			if batchFetcher, ok := fetcher.(fetch.BatchFetcher); ok {
				p.dispatchBatched(batchCtx, batchFetcher, platformRows, merged)
			} else {
				p.dispatchSingle(batchCtx, fetcher, platformRows, merged)
			}
			return nil
		})
	}
	group.Wait()

	summary := &BatchSummary{Items: []database.Result{}, Errors: []string{}}
	for _, state := range states {
		if state.rowErr != nil {
			summary.Errors = append(summary.Errors, state.rowErr.String())
			continue
		}
		if state.result != nil {
			summary.Saved++
			summary.Items = append(summary.Items, *state.result)
		}
	}

	slog.Info("Batch completed", "file", filename, "rows", len(rows), "saved", summary.Saved, "errors", len(summary.Errors))

	return summary, nil
}

// dispatchBatched conserves quota by resolving same-platform rows in chunks
// of the fetcher's batch size. Chunks run sequentially.
func (p *Processor) dispatchBatched(ctx context.Context, fetcher fetch.BatchFetcher, states []*rowState, creds fetch.Credentials) {
	size := fetcher.BatchSize()
	if size <= 0 {
		size = 1
	}

	for start := 0; start < len(states); start += size {
		end := min(start+size, len(states))
		chunk := states[start:end]

		ids := make([]fetch.Identifier, 0, len(chunk))
		for _, state := range chunk {
			ids = append(ids, state.identifier)
		}

		stats, err := fetcher.FetchBatch(ctx, ids, creds)
		if err != nil {
			for _, state := range chunk {
				state.rowErr = p.rowErrorFor(state.request.RowIndex, err)
			}
			continue
		}

		for _, state := range chunk {
			metrics, ok := stats[state.identifier.ID]
			if !ok {
				state.rowErr = &RowError{
					RowIndex: state.request.RowIndex,
					Reason:   ReasonFetchNotFound,
					Detail:   fmt.Sprintf("video %s not found", state.identifier.ID),
				}
				continue
			}
			p.persist(state, metrics)
		}
	}
}

func (p *Processor) dispatchSingle(ctx context.Context, fetcher fetch.Fetcher, states []*rowState, creds fetch.Credentials) {
	group := new(errgroup.Group)
	group.SetLimit(p.workerCount)

	for _, state := range states {
		group.Go(func() error {
			metrics, err := fetch.FetchWithRetry(ctx, fetcher, state.identifier, creds)
			if err != nil {
				state.rowErr = p.rowErrorFor(state.request.RowIndex, err)
				return nil
			}
			p.persist(state, metrics)
			return nil
		})
	}
	group.Wait()
}

func (p *Processor) persist(state *rowState, metrics *fetch.Metrics) {
	// Spreadsheet posted_at fills in when the fetch reports no publish date.
	postedAt := metrics.PostedAt
	if postedAt == nil {
		postedAt = state.request.PostedAt
	}

	result := database.Result{
		Platform:       string(state.identifier.Platform),
		URL:            state.request.URL,
		Creator:        nullableString(cmp.Or(metrics.Creator, state.request.Creator)),
		CampaignID:     nullableString(state.request.CampaignID),
		PostedAt:       postedAt,
		Views:          metrics.Views,
		Likes:          metrics.Likes,
		Comments:       metrics.Comments,
		EngagementRate: DeriveEngagementRate(metrics),
		Notes:          nullableString(state.request.Notes),
		FetchedAt:      time.Now().UTC(),
	}

	var saved *database.Result
	var err error
	if p.historyMode {
		saved, err = p.resultRepo.InsertResult(result)
	} else {
		saved, err = p.resultRepo.UpsertResult(result)
	}
	if err != nil {
		state.rowErr = &RowError{
			RowIndex: state.request.RowIndex,
			Reason:   ReasonPersistenceError,
			Detail:   fmt.Sprintf("failed to save result: %v", err),
		}
		return
	}
	state.result = saved
}

// Refresh re-fetches a stored result and saves the updated metrics. Used by
// the refresh endpoint and the background scheduler.
func (p *Processor) Refresh(ctx context.Context, result database.Result) (*database.Result, error) {
	request := &IngestRequest{
		RowIndex: 1,
		Platform: result.Platform,
		URL:      result.URL,
		PostedAt: result.PostedAt,
	}
	if result.Creator != nil {
		request.Creator = *result.Creator
	}
	if result.CampaignID != nil {
		request.CampaignID = *result.CampaignID
	}
	if result.Notes != nil {
		request.Notes = *result.Notes
	}

	identifier, rowErr := p.resolver.Run(request)
	if rowErr != nil {
		return nil, fmt.Errorf("%s: %s", rowErr.Reason, rowErr.Detail)
	}

	fetcher, ok := p.fetchers[identifier.Platform]
	if !ok {
		return nil, fmt.Errorf("no fetcher configured for platform %q", identifier.Platform)
	}

	metrics, err := fetch.FetchWithRetry(ctx, fetcher, identifier, p.defaultCreds)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh %s: %w", result.URL, err)
	}

	state := &rowState{request: request, identifier: identifier}
	p.persist(state, metrics)
	if state.rowErr != nil {
		return nil, fmt.Errorf("%s: %s", state.rowErr.Reason, state.rowErr.Detail)
	}

	return state.result, nil
}

func (p *Processor) rowErrorFor(rowIndex int, err error) *RowError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &RowError{
			RowIndex: rowIndex,
			Reason:   ReasonFetchTimeout,
			Detail:   "batch deadline elapsed before fetch completed",
		}
	}

	if fe, ok := fetch.AsFetchError(err); ok {
		reason := ReasonFetchTimeout
		switch fe.Reason {
		case fetch.ReasonAuth:
			reason = ReasonFetchAuthError
		case fetch.ReasonRateLimited:
			reason = ReasonFetchRateLimited
		case fetch.ReasonNotFound, fetch.ReasonBadResponse:
			reason = ReasonFetchNotFound
		case fetch.ReasonTimeout, fetch.ReasonUnavailable:
			reason = ReasonFetchTimeout
		}
		return &RowError{RowIndex: rowIndex, Reason: reason, Detail: fe.Detail}
	}

	return &RowError{RowIndex: rowIndex, Reason: ReasonFetchTimeout, Detail: err.Error()}
}

func (p *Processor) mergeCredentials(creds fetch.Credentials) fetch.Credentials {
	return fetch.Credentials{
		YouTubeAPIKey:      cmp.Or(creds.YouTubeAPIKey, p.defaultCreds.YouTubeAPIKey),
		InstagramSessionID: cmp.Or(creds.InstagramSessionID, p.defaultCreds.InstagramSessionID),
	}
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
