package workers

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/openelects/candidatesbackend/database"
	"github.com/openelects/candidatesbackend/media"
	"github.com/openelects/candidatesbackend/repository"
)

// ExportJob asks for the candidates CSV of one election to be regenerated
type ExportJob struct {
	ElectionID   uint
	ElectionSlug string
}

// ExportGenerator regenerates per-election candidate CSV files in the
// background. elections whose candidate set changed (edits, merges, results)
// get queued here rather than rebuilding the file inside the request.
type ExportGenerator struct {
	JobQueue     chan ExportJob
	DB           *sql.DB
	ElectionRepo repository.ElectionRepositoryInterface
	Store        media.Store
	Wg           sync.WaitGroup
	StopChan     chan struct{}
	Pending      map[string]bool
	Mutex        sync.Mutex
}

func NewExportGenerator(db *sql.DB, electionRepo repository.ElectionRepositoryInterface, store media.Store, queueSize, numWorkers int) *ExportGenerator {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	if queueSize <= 0 {
		queueSize = 50
	}

	gen := &ExportGenerator{
		JobQueue:     make(chan ExportJob, queueSize),
		DB:           db,
		ElectionRepo: electionRepo,
		Store:        store,
		StopChan:     make(chan struct{}),
		Pending:      make(map[string]bool),
	}

	gen.Wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go gen.worker(i)
	}
	log.Printf("started %d export worker(s) with queue size %d", numWorkers, queueSize)

	return gen
}

func (eg *ExportGenerator) worker(id int) {
	defer eg.Wg.Done()
	log.Printf("export worker %d started", id)
	for {
		select {
		case job, ok := <-eg.JobQueue:
			if !ok {
				log.Printf("export worker %d stopping: Job queue closed", id)
				return
			}
			log.Printf("worker %d processing CSV export for: %s", id, job.ElectionSlug)
			eg.processJob(job)
			eg.Mutex.Lock()
			delete(eg.Pending, job.ElectionSlug)
			eg.Mutex.Unlock()

		case <-eg.StopChan:
			log.Printf("export worker %d stopping: stop signal received", id)
			return
		}
	}
}

func (eg *ExportGenerator) processJob(job ExportJob) {
	if err := eg.ElectionRepo.MarkCSVProcessing(job.ElectionID); err != nil {
		log.Printf("ERROR marking CSV processing for election %s: %v", job.ElectionSlug, err)
		return
	}

	csvPath, err := eg.generateCSV(job)
	if err != nil {
		log.Printf("ERROR generating CSV for election %s: %v", job.ElectionSlug, err)
	}

	var pathPtr *string
	if err == nil {
		pathPtr = &csvPath
	}
	if dbErr := eg.ElectionRepo.SetCSVResult(job.ElectionID, pathPtr, err); dbErr != nil {
		log.Printf("ERROR updating CSV result for election %s: %v", job.ElectionSlug, dbErr)
		return
	}

	if err == nil {
		log.Printf("successfully generated CSV and updated DB for: %s", job.ElectionSlug)
	}
}

// generateCSV streams the election's candidacies through encoding/csv into
// the export store and returns the stored file's relative path
func (eg *ExportGenerator) generateCSV(job ExportJob) (string, error) {
	candidates, err := database.ListCandidatesForElection(eg.DB, job.ElectionSlug)
	if err != nil {
		return "", fmt.Errorf("failed to load candidates for %s: %w", job.ElectionSlug, err)
	}

	reader, writer := io.Pipe()
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		csvWriter := csv.NewWriter(writer)
		header := []string{
			"person_id", "name", "ballot_paper_id", "post_label",
			"party_ec_id", "party_name", "elected", "party_list_position",
		}
		if err := csvWriter.Write(header); err != nil {
			writer.CloseWithError(fmt.Errorf("failed to write CSV header: %w", err))
			return
		}
		for _, row := range candidates {
			record := []string{
				strconv.FormatInt(row.PersonID, 10),
				row.PersonName,
				row.BallotPaperID,
				row.PostLabel,
				row.PartyECID,
				row.PartyName,
				formatNullBool(row.Elected),
				formatNullInt(row.PartyListPosition),
			}
			if err := csvWriter.Write(record); err != nil {
				writer.CloseWithError(fmt.Errorf("failed to write CSV record: %w", err))
				return
			}
		}
		csvWriter.Flush()
		if err := csvWriter.Error(); err != nil {
			writer.CloseWithError(fmt.Errorf("failed to flush CSV: %w", err))
			return
		}
		writer.Close()
	}()

	exportUUID, err := uuid.NewRandom()
	if err != nil {
		reader.Close()
		<-writerDone
		return "", fmt.Errorf("failed to generate UUID for export: %w", err)
	}
	targetFilename := fmt.Sprintf("%s-%s.csv", job.ElectionSlug, exportUUID.String())

	savedRelPath, err := eg.Store.Save(media.AssetTypeExport, targetFilename, reader)
	if err != nil {
		// unblock the CSV goroutine if the store failed before draining
		// the pipe
		reader.CloseWithError(err)
		<-writerDone
		return "", fmt.Errorf("failed to save export via store: %w", err)
	}
	<-writerDone
	return savedRelPath, nil
}

func formatNullBool(b sql.NullBool) string {
	if !b.Valid {
		return ""
	}
	return strconv.FormatBool(b.Bool)
}

func formatNullInt(i sql.NullInt64) string {
	if !i.Valid {
		return ""
	}
	return strconv.FormatInt(i.Int64, 10)
}

// QueueJob queues a CSV regeneration if one is not already pending
func (eg *ExportGenerator) QueueJob(job ExportJob) bool {
	eg.Mutex.Lock()
	if eg.Pending[job.ElectionSlug] {
		eg.Mutex.Unlock()
		log.Printf("CSV export for %s already pending, skipping queue", job.ElectionSlug)
		return false
	}

	eg.Pending[job.ElectionSlug] = true
	eg.Mutex.Unlock()

	select {
	case eg.JobQueue <- job:
		log.Printf("queued CSV export for: %s", job.ElectionSlug)
		return true
	default:
		log.Printf("WARNING: export job queue full, failed to queue job for: %s", job.ElectionSlug)
		eg.Mutex.Lock()
		delete(eg.Pending, job.ElectionSlug)
		eg.Mutex.Unlock()
		return false
	}
}

func (eg *ExportGenerator) Stop() {
	log.Println("stopping export generator...")
	close(eg.StopChan)
	eg.Wg.Wait()
	log.Println("all export workers stopped")
}
