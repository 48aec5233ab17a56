package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"drug-mentions/config"
	"drug-mentions/models"
	"drug-mentions/sources"
	"drug-mentions/storage"
)

// GraphFileName ist der Dateiname des exportierten Graph-JSON.
const GraphFileName = "drug_mentions_graph_with_sources.json"

// PipelineService orchestriert den gesamten Lauf: Quellen laden, bereinigen,
// matchen, Graph bauen, Snapshot persistieren und exportieren.
type PipelineService struct {
	Config   *config.Config
	DB       *gorm.DB
	S3Client *s3.Client
	Logger   *zap.Logger
}

// NewPipelineService erstellt eine neue Instanz des PipelineService.
func NewPipelineService(cfg *config.Config, db *gorm.DB, s3Client *s3.Client, logger *zap.Logger) *PipelineService {
	return &PipelineService{Config: cfg, DB: db, S3Client: s3Client, Logger: logger}
}

// PipelineResult bündelt das Ergebnis eines Laufs.
type PipelineResult struct {
	Graph   *MentionGraph `json:"-"`
	Payload []byte        `json:"-"`

	DrugCount    int `json:"drug_count"`
	JournalCount int `json:"journal_count"`
	MentionCount int `json:"mention_count"`

	PublicationStats LoadStats `json:"publication_stats"`
	TrialStats       LoadStats `json:"trial_stats"`

	SnapshotID uint   `json:"snapshot_id,omitempty"`
	S3Link     string `json:"s3_link,omitempty"`
	Duration   string `json:"duration"`
}

// Run führt die komplette Pipeline aus. Der Lauf ist idempotent: gleiche
// Eingabedaten ergeben einen byte-identischen Graph.
func (p *PipelineService) Run(ctx context.Context) (*PipelineResult, error) {
	start := time.Now()
	log := p.Logger.With(zap.String("data_dir", p.Config.DataDir))
	log.Info("Starte Pipeline-Lauf.")

	drugBatches, pubBatches, trialBatches, err := p.fetchBatches()
	if err != nil {
		return nil, err
	}

	loader := NewLoader(p.Logger, p.Config.StrictDates)

	vocab, _, err := loader.LoadDrugs(drugBatches...)
	if err != nil {
		return nil, fmt.Errorf("load drugs: %w", err)
	}

	// Publikationen und Studien sind unabhängige Quellen und werden parallel
	// bereinigt und gematcht; der Merge wartet auf beide.
	matcher := NewMatcher(vocab)
	builder := NewGraphBuilder(p.Logger, p.Config.KeepZeroMentionDrugs)

	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		loadErr    error
		partials   [2]*PartialGraph
		stats      [2]LoadStats
		allRecords [2][]MentionRecord
	)

	type job struct {
		source  SourceType
		batches []sources.Batch
	}
	for i, j := range []job{
		{source: SourcePublication, batches: pubBatches},
		{source: SourceClinicalTrial, batches: trialBatches},
	} {
		wg.Add(1)
		go func(slot int, j job) {
			defer wg.Done()
			records, loadStats, err := loader.LoadMentions(j.source, j.batches...)
			if err != nil {
				mu.Lock()
				if loadErr == nil {
					loadErr = fmt.Errorf("load %s: %w", j.source, err)
				}
				mu.Unlock()
				return
			}
			partials[slot] = builder.BuildPartial(j.source, matcher.Match(records))
			stats[slot] = loadStats
			allRecords[slot] = records
		}(i, j)
	}
	wg.Wait()
	if loadErr != nil {
		return nil, loadErr
	}

	graph := builder.Merge(vocab, partials[0], partials[1])

	payload, err := json.MarshalIndent(graph, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("marshal graph: %w", err)
	}

	result := &PipelineResult{
		Graph:            graph,
		Payload:          payload,
		DrugCount:        len(graph.Drugs),
		JournalCount:     countDistinctJournals(graph),
		MentionCount:     countMentions(graph),
		PublicationStats: stats[0],
		TrialStats:       stats[1],
	}

	if p.DB != nil {
		if err := p.persist(ctx, vocab, allRecords, result); err != nil {
			return nil, err
		}
	}

	if err := p.writeGraphFile(payload); err != nil {
		log.Warn("Graph-Datei konnte nicht geschrieben werden", zap.Error(err))
	}

	if p.S3Client != nil && p.Config.S3Enabled() {
		link, err := storage.UploadGraph(p.S3Client, p.Config.ExportS3Bucket, GraphFileName, payload, p.Config)
		if err != nil {
			log.Error("S3-Export fehlgeschlagen", zap.Error(err))
		} else {
			result.S3Link = link
			if p.DB != nil && result.SnapshotID != 0 {
				p.DB.Model(&models.GraphSnapshot{}).Where("id = ?", result.SnapshotID).Update("s3_link", link)
			}
		}
	}

	result.Duration = time.Since(start).String()
	log.Info("Pipeline-Lauf abgeschlossen",
		zap.Int("drugs", result.DrugCount),
		zap.Int("journals", result.JournalCount),
		zap.Int("mentions", result.MentionCount),
		zap.Int("dropped_rows", result.PublicationStats.Dropped+result.TrialStats.Dropped),
		zap.String("duration", result.Duration))
	return result, nil
}

// fetchBatches sammelt die Roh-Batches aus dem Datenverzeichnis ein. Die
// Publikations-Quelle darf aus CSV und JSON bestehen; beide werden in fester
// Reihenfolge (CSV vor JSON) konkateniert.
func (p *PipelineService) fetchBatches() (drugs, pubs, trials []sources.Batch, err error) {
	dir := p.Config.DataDir

	drugsPath := filepath.Join(dir, "drugs.csv")
	if _, statErr := os.Stat(drugsPath); statErr != nil {
		return nil, nil, nil, fmt.Errorf("drugs data file not found at %s", drugsPath)
	}
	batch, err := sources.NewCSVSource(drugsPath, p.Logger).Fetch()
	if err != nil {
		return nil, nil, nil, err
	}
	drugs = append(drugs, batch)

	pubSources := []sources.Source{}
	if path := filepath.Join(dir, "pubmed.csv"); fileExists(path) {
		pubSources = append(pubSources, sources.NewCSVSource(path, p.Logger))
	}
	if path := filepath.Join(dir, "pubmed.json"); fileExists(path) {
		pubSources = append(pubSources, sources.NewJSONSource(path, p.Logger))
	}
	if len(pubSources) == 0 {
		return nil, nil, nil, fmt.Errorf("pubmed data files not found in %s", dir)
	}
	for _, src := range pubSources {
		batch, err := src.Fetch()
		if err != nil {
			return nil, nil, nil, err
		}
		pubs = append(pubs, batch)
	}

	trialsPath := filepath.Join(dir, "clinical_trials.csv")
	if _, statErr := os.Stat(trialsPath); statErr != nil {
		return nil, nil, nil, fmt.Errorf("clinical trials data file not found at %s", trialsPath)
	}
	batch, err = sources.NewCSVSource(trialsPath, p.Logger).Fetch()
	if err != nil {
		return nil, nil, nil, err
	}
	trials = append(trials, batch)

	return drugs, pubs, trials, nil
}

// persist spiegelt Vokabular und bereinigte Records in die Datenbank und
// legt den Graph-Snapshot an.
func (p *PipelineService) persist(ctx context.Context, vocab *Vocabulary, records [2][]MentionRecord, result *PipelineResult) error {
	db := p.DB.WithContext(ctx)

	for _, name := range vocab.Names() {
		drug := models.Drug{Name: name}
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).Create(&drug).Error; err != nil {
			return fmt.Errorf("persist drug %s: %w", name, err)
		}
	}

	for _, recs := range records {
		for _, rec := range recs {
			mention := models.Mention{
				RecordID:   rec.ID,
				Title:      rec.Title,
				SourceType: string(rec.Source),
				Date:       time.Date(rec.Date.Year, rec.Date.Month, rec.Date.Day, 0, 0, 0, 0, time.UTC),
				Journal:    rec.Journal,
			}
			if err := db.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "title"}, {Name: "source_type"}},
				DoUpdates: clause.Assignments(map[string]any{
					"record_id":  mention.RecordID,
					"date":       mention.Date,
					"journal":    mention.Journal,
					"updated_at": gorm.Expr("NOW()"),
				}),
			}).Create(&mention).Error; err != nil {
				return fmt.Errorf("persist mention %q: %w", rec.Title, err)
			}
		}
	}

	snapshot := models.GraphSnapshot{
		DrugCount:    result.DrugCount,
		JournalCount: result.JournalCount,
		MentionCount: result.MentionCount,
		DroppedRows:  result.PublicationStats.Dropped + result.TrialStats.Dropped,
		Payload:      result.Payload,
	}
	if err := db.Create(&snapshot).Error; err != nil {
		return fmt.Errorf("persist graph snapshot: %w", err)
	}
	result.SnapshotID = snapshot.ID
	return nil
}

// writeGraphFile legt das Graph-JSON im Output-Verzeichnis ab.
func (p *PipelineService) writeGraphFile(payload []byte) error {
	if p.Config.OutputDir == "" {
		return nil
	}
	if err := os.MkdirAll(p.Config.OutputDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(p.Config.OutputDir, GraphFileName), payload, 0o644)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// countDistinctJournals zählt die unterschiedlichen Journals im Graph
// (case-insensitiv, wie die Journal-Gleichheit im Builder).
func countDistinctJournals(graph *MentionGraph) int {
	seen := make(map[string]bool)
	for _, drug := range graph.Drugs {
		for _, journal := range drug.Journals {
			seen[strings.ToLower(journal.Journal)] = true
		}
	}
	return len(seen)
}

// countMentions zählt alle Graph-Blätter über beide Quelltypen.
func countMentions(graph *MentionGraph) int {
	total := 0
	for _, drug := range graph.Drugs {
		for _, journal := range drug.Journals {
			for _, entries := range journal.Entries {
				total += len(entries)
			}
		}
	}
	return total
}
