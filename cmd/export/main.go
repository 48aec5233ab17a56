package main

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	appconfig "drug-mentions/config"
	"drug-mentions/services"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
)

type ExportConfig struct {
	ExportBucket    string `envconfig:"EXPORT_S3_BUCKET" required:"true"`
	ExportEndpoint  string `envconfig:"EXPORT_S3_URL" required:"true"`
	ExportAccessKey string `envconfig:"EXPORT_S3_KEY" required:"true"`
	ExportSecretKey string `envconfig:"EXPORT_S3_SECRET" required:"true"`
	ExportRegion    string `envconfig:"EXPORT_S3_REGION" required:"true"`
	KeepExports     int    `envconfig:"KEEP_EXPORTS" default:"4"`

	DataDir              string `envconfig:"DATA_DIR" default:"data"`
	OutputDir            string `envconfig:"OUTPUT_DIR" default:"outputs"`
	StrictDates          bool   `envconfig:"STRICT_DATES" default:"false"`
	KeepZeroMentionDrugs bool   `envconfig:"KEEP_ZERO_MENTION_DRUGS" default:"true"`
}

func main() {
	log.Println("Starte Graph-Export...")

	var cfg ExportConfig
	err := envconfig.Process("", &cfg)
	if err != nil {
		log.Fatalf("Fehler beim Laden der Konfiguration: %v", err)
	}

	// 1. Pipeline aus den Dateiquellen laufen lassen
	payload, err := buildGraphPayload(cfg)
	if err != nil {
		log.Fatalf("Fehler beim Bauen des Graphen: %v", err)
	}

	// 2. S3-Client erstellen
	s3Client, err := createS3Client(cfg)
	if err != nil {
		log.Fatalf("Fehler beim Erstellen des S3-Clients: %v", err)
	}

	// 3. Graph nach S3 hochladen
	fileName := fmt.Sprintf("drug-mentions-graph-%s.json.gz", time.Now().UTC().Format("2006-01-02T15-04-05Z"))
	err = uploadToS3(s3Client, cfg, fileName, payload)
	if err != nil {
		log.Fatalf("Fehler beim Hochladen nach S3: %v", err)
	}
	log.Printf("Graph erfolgreich nach s3://%s/%s hochgeladen", cfg.ExportBucket, fileName)

	// 4. Alte Exporte rotieren
	err = rotateExports(s3Client, cfg)
	if err != nil {
		log.Fatalf("Fehler bei der Rotation alter Exporte: %v", err)
	}

	log.Println("Graph-Export erfolgreich abgeschlossen.")
}

// buildGraphPayload läuft die Datei-Pipeline ohne Datenbank und liefert
// den gzip-komprimierten Graph-Payload.
func buildGraphPayload(cfg ExportConfig) ([]byte, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	defer logger.Sync()

	appCfg := &appconfig.Config{
		DataDir:              cfg.DataDir,
		OutputDir:            cfg.OutputDir,
		StrictDates:          cfg.StrictDates,
		KeepZeroMentionDrugs: cfg.KeepZeroMentionDrugs,
	}
	pipeline := services.NewPipelineService(appCfg, nil, nil, logger)
	result, err := pipeline.Run(context.Background())
	if err != nil {
		return nil, err
	}
	log.Printf("Graph gebaut: %d Drugs, %d Journals, %d Mentions",
		result.DrugCount, result.JournalCount, result.MentionCount)

	var buf bytes.Buffer
	gzipWriter := gzip.NewWriter(&buf)
	if _, err := gzipWriter.Write(result.Payload); err != nil {
		return nil, err
	}
	if err := gzipWriter.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func createS3Client(cfg ExportConfig) (*s3.Client, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL: cfg.ExportEndpoint,
		}, nil
	})

	awsCfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithEndpointResolverWithOptions(resolver),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.ExportAccessKey, cfg.ExportSecretKey, "")),
		config.WithRegion(cfg.ExportRegion),
	)
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(awsCfg), nil
}

func uploadToS3(client *s3.Client, cfg ExportConfig, key string, data []byte) error {
	_, err := client.PutObject(context.TODO(), &s3.PutObjectInput{
		Bucket: aws.String(cfg.ExportBucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	return err
}

func rotateExports(client *s3.Client, cfg ExportConfig) error {
	output, err := client.ListObjectsV2(context.TODO(), &s3.ListObjectsV2Input{
		Bucket: aws.String(cfg.ExportBucket),
	})
	if err != nil {
		return err
	}

	if len(output.Contents) <= cfg.KeepExports {
		log.Printf("Weniger als %d Exporte vorhanden, keine Rotation nötig.", cfg.KeepExports)
		return nil
	}

	sort.Slice(output.Contents, func(i, j int) bool {
		return output.Contents[i].LastModified.After(*output.Contents[j].LastModified)
	})

	for _, obj := range output.Contents[cfg.KeepExports:] {
		log.Printf("Lösche alten Export: %s", *obj.Key)
		_, err := client.DeleteObject(context.TODO(), &s3.DeleteObjectInput{
			Bucket: aws.String(cfg.ExportBucket),
			Key:    obj.Key,
		})
		if err != nil {
			log.Printf("Fehler beim Löschen von %s: %v", *obj.Key, err)
		}
	}

	return nil
}
