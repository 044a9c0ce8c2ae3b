package pipeline_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"aotw/internal/album"
	"aotw/internal/ledger"
	"aotw/internal/pipeline"
	"aotw/internal/publish"
)

type panickingCatalog struct{}

func (panickingCatalog) LookupAlbum(context.Context, string) (album.Record, error) {
	panic("catalog exploded")
}

type panickingPublisher struct{}

func (panickingPublisher) Publish(context.Context, ledger.Ref, *album.Record) (bool, string) {
	panic("publisher exploded")
}

type panickingLinks struct{}

func (panickingLinks) AppleMusicURL(context.Context, string) (string, error) {
	panic("resolver exploded")
}

func TestProcessRecoversStagePanics(t *testing.T) {
	tests := []struct {
		name      string
		catalog   pipeline.Catalog
		publisher pipeline.Publisher
		opts      []pipeline.Option
		success   bool
		kind      pipeline.Kind
		message   string
		appended  int
	}{
		{
			name:      "catalog",
			catalog:   panickingCatalog{},
			publisher: &fakePublisher{ok: true},
			kind:      pipeline.KindCatalogLookupFailed,
			message:   pipeline.MessageCatalogFailed,
		},
		{
			name:      "link resolver",
			catalog:   &fakeCatalog{record: homogenic()},
			publisher: &fakePublisher{ok: true},
			opts:      []pipeline.Option{pipeline.WithLinkResolver(panickingLinks{})},
			kind:      pipeline.KindLedgerWriteFailed,
			message:   pipeline.MessageLedgerWriteFailed,
		},
		{
			name:      "publisher",
			catalog:   &fakeCatalog{record: homogenic()},
			publisher: panickingPublisher{},
			success:   true,
			kind:      pipeline.KindPublishFailed,
			message:   "✅ Added *Homogenic* by *Björk* (Pick #1)\n" + publish.MessagePending,
			appended:  1,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, header)
			o := pipeline.New(h.cfg, h.sheet.Opener(nil), tc.catalog, tc.publisher, nil, tc.opts...)

			res := o.Process(context.Background(), pipeline.Request{URL: albumURL})
			if res.Success != tc.success || res.Kind != tc.kind || res.Message != tc.message {
				t.Fatalf("unexpected result %+v", res)
			}
			if tc.success && !res.PartialFailure {
				t.Fatalf("expected partial failure, got %+v", res)
			}
			if !tc.success && res.Cause() == nil {
				t.Fatal("expected recovered panic as cause")
			}
			if len(h.sheet.Appended) != tc.appended {
				t.Fatalf("expected %d appends, got %d", tc.appended, len(h.sheet.Appended))
			}
		})
	}
}

func TestProcessLogsStageEvents(t *testing.T) {
	h := newHarness(t, header)
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	o := pipeline.New(h.cfg, h.sheet.Opener(nil), h.catalog, h.publisher, logger)

	if res := o.Process(context.Background(), pipeline.Request{URL: albumURL}); !res.Success {
		t.Fatalf("unexpected result %+v", res)
	}

	started := map[string]bool{}
	completed := map[string]bool{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("decode log line %q: %v", line, err)
		}
		stage, _ := entry["stage"].(string)
		switch entry["event_type"] {
		case "stage_start":
			started[stage] = true
		case "stage_complete":
			if entry["level"] != "INFO" {
				t.Fatalf("stage_complete logged at %v", entry["level"])
			}
			completed[stage] = true
		case "stage_failed":
			t.Fatalf("unexpected stage failure %v", entry)
		}
	}
	for _, stage := range []string{
		pipeline.StageValidate, pipeline.StageConnectLedger, pipeline.StageDuplicateCheck,
		pipeline.StageCatalogLookup, pipeline.StageMetadata, pipeline.StageEnrich,
		pipeline.StageLedgerAppend, pipeline.StagePublish,
	} {
		if !started[stage] || !completed[stage] {
			t.Fatalf("stage %s: started=%v completed=%v", stage, started[stage], completed[stage])
		}
	}
}

func TestProcessFailedStageIsNotCompleted(t *testing.T) {
	h := newHarness(t, header)
	h.publisher.ok = false
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	o := pipeline.New(h.cfg, h.sheet.Opener(nil), h.catalog, h.publisher, logger)

	o.Process(context.Background(), pipeline.Request{URL: albumURL})
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if strings.Contains(line, `"stage_complete"`) && strings.Contains(line, `"stage":"publish"`) {
			t.Fatalf("pending publish logged as complete: %s", line)
		}
	}
}
