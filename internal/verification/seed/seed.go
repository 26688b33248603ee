// Package seed loads pending verification requests from a YAML fixture and
// hands them to intake. It replaces hard-coded demo data in development.
package seed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"verifdesk/internal/verification/models"
	"verifdesk/internal/verification/ports"
	id "verifdesk/pkg/domain"
	dErrors "verifdesk/pkg/domain-errors"
)

// File is the top-level fixture document.
type File struct {
	Requests []Request `yaml:"requests"`
}

type Request struct {
	ID                         string     `yaml:"id"`
	Applicant                  Applicant  `yaml:"applicant"`
	DocumentType               string     `yaml:"document_type"`
	RiskLevel                  string     `yaml:"risk_level"`
	Priority                   int        `yaml:"priority"`
	RequestedAt                time.Time  `yaml:"requested_at"`
	AssignedTo                 string     `yaml:"assigned_to"`
	Source                     string     `yaml:"source"`
	Location                   string     `yaml:"location"`
	EstimatedProcessingMinutes int        `yaml:"estimated_processing_minutes"`
	Documents                  []Document `yaml:"documents"`
	Verifications              []Check    `yaml:"verifications"`
	Notes                      []Note     `yaml:"notes"`
}

type Applicant struct {
	ID                   string `yaml:"id"`
	FirstName            string `yaml:"first_name"`
	LastName             string `yaml:"last_name"`
	DateOfBirth          string `yaml:"date_of_birth"`
	PlaceOfBirth         string `yaml:"place_of_birth"`
	Nationality          string `yaml:"nationality"`
	Gender               string `yaml:"gender"`
	Address              string `yaml:"address"`
	Phone                string `yaml:"phone"`
	Email                string `yaml:"email"`
	PhotoURL             string `yaml:"photo_url"`
	IdentificationNumber string `yaml:"identification_number"`
}

type Document struct {
	ID         string    `yaml:"id"`
	Type       string    `yaml:"type"`
	Name       string    `yaml:"name"`
	URL        string    `yaml:"url"`
	UploadedAt time.Time `yaml:"uploaded_at"`
	Verified   bool      `yaml:"verified"`
	Issues     []string  `yaml:"issues"`
}

type Check struct {
	ID          string    `yaml:"id"`
	Method      string    `yaml:"method"`
	Result      string    `yaml:"result"`
	Score       *int      `yaml:"score"`
	Details     string    `yaml:"details"`
	PerformedAt time.Time `yaml:"performed_at"`
	PerformedBy string    `yaml:"performed_by"`
}

type Note struct {
	ID        string    `yaml:"id"`
	Content   string    `yaml:"content"`
	CreatedBy string    `yaml:"created_by"`
	CreatedAt time.Time `yaml:"created_at"`
	Type      string    `yaml:"type"`
}

// Result summarizes one load.
type Result struct {
	Created int
	Skipped int
}

// Parse decodes a fixture. Unknown keys are rejected so typos surface early.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return &f, nil
		}
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	return &f, nil
}

// LoadFile reads path and creates every request through source.
func LoadFile(ctx context.Context, path string, source ports.RequestSource, logger *slog.Logger) (Result, error) {
	fh, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("open seed file: %w", err)
	}
	defer fh.Close()

	f, err := Parse(fh)
	if err != nil {
		return Result{}, err
	}
	return Load(ctx, f, source, logger)
}

// Load creates each request in order. Requests that already exist are skipped
// so a restart against a persistent store is harmless; any other error stops
// the load.
func Load(ctx context.Context, f *File, source ports.RequestSource, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	var res Result
	for i, entry := range f.Requests {
		_, err := source.CreateRequest(ctx, entry.toModel())
		switch {
		case err == nil:
			res.Created++
		case dErrors.HasCode(err, dErrors.CodeConflict):
			res.Skipped++
			logger.InfoContext(ctx, "seed request already present",
				"verification_id", entry.ID,
			)
		default:
			return res, fmt.Errorf("seed request %d (%s): %w", i, entry.ID, err)
		}
	}
	logger.InfoContext(ctx, "seed data loaded",
		"created", res.Created,
		"skipped", res.Skipped,
	)
	return res, nil
}

func (r Request) toModel() *models.VerificationRequest {
	out := &models.VerificationRequest{
		ID: id.VerificationID(r.ID),
		Applicant: models.Applicant{
			ID:                   r.Applicant.ID,
			FirstName:            r.Applicant.FirstName,
			LastName:             r.Applicant.LastName,
			DateOfBirth:          r.Applicant.DateOfBirth,
			PlaceOfBirth:         r.Applicant.PlaceOfBirth,
			Nationality:          r.Applicant.Nationality,
			Gender:               models.Gender(r.Applicant.Gender),
			Address:              r.Applicant.Address,
			Phone:                r.Applicant.Phone,
			Email:                r.Applicant.Email,
			PhotoURL:             r.Applicant.PhotoURL,
			IdentificationNumber: r.Applicant.IdentificationNumber,
		},
		DocumentType:               models.DocumentType(r.DocumentType),
		Status:                     models.StatusPending,
		RiskLevel:                  models.RiskLevel(r.RiskLevel),
		Priority:                   r.Priority,
		RequestedAt:                r.RequestedAt,
		AssignedTo:                 id.ReviewerID(r.AssignedTo),
		Source:                     models.Source(r.Source),
		Location:                   r.Location,
		EstimatedProcessingMinutes: r.EstimatedProcessingMinutes,
	}
	for _, d := range r.Documents {
		out.Documents = append(out.Documents, models.Document{
			ID: d.ID, Type: d.Type, Name: d.Name, URL: d.URL,
			UploadedAt: d.UploadedAt, Verified: d.Verified, Issues: d.Issues,
		})
	}
	for _, c := range r.Verifications {
		out.Verifications = append(out.Verifications, models.VerificationCheck{
			ID: c.ID, Method: models.CheckMethod(c.Method), Result: models.CheckResult(c.Result),
			Score: c.Score, Details: c.Details, PerformedAt: c.PerformedAt, PerformedBy: c.PerformedBy,
		})
	}
	for _, n := range r.Notes {
		out.Notes = append(out.Notes, models.Note{
			ID: n.ID, Content: n.Content, CreatedBy: n.CreatedBy, CreatedAt: n.CreatedAt,
			Type: models.NoteType(n.Type),
		})
	}
	return out
}
