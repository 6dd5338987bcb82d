package main

import (
	"context"
	"flag"
	"strings"
	"time"

	"voicepanels/internal/cache"
	"voicepanels/internal/config"
	"voicepanels/internal/dataset"
	"voicepanels/internal/logger"
	"voicepanels/internal/model"
	"voicepanels/internal/repository"
	"voicepanels/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	file := flag.String("file", "", "xlsx workbook to import; built-in demo data when empty")
	flag.Parse()

	_ = godotenv.Load()
	log := logger.New()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	cfg := config.Load()
	stores, err := repository.Open(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to open evaluation store")
	}
	defer stores.Close(context.Background())

	var summaries cache.SummaryCache
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err == nil {
		summaries = cache.NewSummaryCache(rdb, cfg.SummaryCacheTTL)
	}

	evaluator := service.NewEvaluatorService(config.DefaultAIConfig(), log.Component("evaluator"))
	ingestSvc := service.NewIngestService(stores.Evaluations, stores.Panels, evaluator, summaries, nil, nil, log.Component("ingest"))
	panelSvc := service.NewPanelService(stores.Panels)

	rows := demoRows()
	if *file != "" {
		rows, err = dataset.Load(*file)
		if err != nil {
			log.WithError(err).WithField("file", *file).Fatal("failed to read workbook")
		}
	}

	s := &seeder{panels: stores.Panels, panelSvc: panelSvc, ingest: ingestSvc, ids: map[string]string{}, log: log.Entry}
	inserted, skipped, failed := 0, 0, 0
	for _, row := range rows {
		ok, err := s.seed(ctx, row)
		switch {
		case err != nil:
			failed++
			log.WithError(err).WithField("interview_id", row.InterviewID).Warn("row not imported")
		case ok:
			inserted++
		default:
			skipped++
		}
	}

	log.WithFields(logrus.Fields{
		"rows":     len(rows),
		"inserted": inserted,
		"existing": skipped,
		"failed":   failed,
	}).Info("seed finished")
}

type seeder struct {
	panels   repository.PanelStore
	panelSvc *service.PanelService
	ingest   *service.IngestService
	ids      map[string]string // lowercased panel name -> id
	log      *logrus.Entry
}

// panelID reuses a panel with exactly this name or creates one
func (s *seeder) panelID(ctx context.Context, name string) (string, error) {
	key := strings.ToLower(name)
	if id, ok := s.ids[key]; ok {
		return id, nil
	}

	existing, err := s.panels.ListPanels(ctx)
	if err != nil {
		return "", err
	}
	for _, p := range existing {
		if strings.EqualFold(p.Name, name) {
			s.ids[key] = p.ID
			return p.ID, nil
		}
	}

	panel, err := s.panelSvc.Create(ctx, name, "")
	if err != nil {
		return "", err
	}
	s.log.WithFields(logrus.Fields{"panel_id": panel.ID, "name": panel.Name}).Info("panel created")
	s.ids[key] = panel.ID
	return panel.ID, nil
}

func (s *seeder) seed(ctx context.Context, row dataset.Row) (bool, error) {
	panelID, err := s.panelID(ctx, row.PanelName)
	if err != nil {
		return false, err
	}

	req := service.IngestRequest{
		InterviewID:        row.InterviewID,
		PanelID:            panelID,
		ParticipantName:    row.ParticipantName,
		ParticipantCompany: row.ParticipantCompany,
		CompletedAt:        row.CompletedAt,
		Transcript:         row.Transcript,
	}
	if row.Sentiment != "" {
		req.Evaluation = rowEvaluation(row)
	}

	res, err := s.ingest.Ingest(ctx, req)
	if err != nil {
		return false, err
	}
	return res.Inserted, nil
}

func rowEvaluation(row dataset.Row) *model.RawEvaluation {
	ev := &model.RawEvaluation{
		Summary:    row.Summary,
		Sentiment:  row.Sentiment,
		Topics:     strings2any(row.Topics),
		PainPoints: strings2any(row.PainPoints),
		Desires:    strings2any(row.Desires),
		KeyQuotes:  strings2any(row.KeyQuotes),
	}
	if row.SentimentScore != nil {
		ev.SentimentScore = *row.SentimentScore
	}
	if row.QualityScore != nil {
		ev.QualityScore = *row.QualityScore
	}
	return ev
}

func strings2any(items []string) []any {
	out := make([]any, len(items))
	for i, s := range items {
		out[i] = s
	}
	return out
}
