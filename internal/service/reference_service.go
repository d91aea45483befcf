package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrReferenceNotFound means the lookup service has no record.
var ErrReferenceNotFound = errors.New("reference not found")

// Reference is normalized bibliographic metadata.
type Reference struct {
	Title     string   `json:"title"`
	Authors   []string `json:"authors"`
	Publisher string   `json:"publisher,omitempty"`
	Year      string   `json:"year,omitempty"`
	DOI       string   `json:"doi,omitempty"`
	ISBN      string   `json:"isbn,omitempty"`
	URL       string   `json:"url,omitempty"`
}

// ReferenceService resolves DOI and ISBN identifiers against Crossref and
// Open Library. Read only, best effort.
type ReferenceService struct {
	http            httpDoer
	crossrefBaseURL string
	openLibraryURL  string
}

// NewReferenceService creates a ReferenceService with the public endpoints.
func NewReferenceService() *ReferenceService {
	return &ReferenceService{
		http:            &http.Client{Timeout: 15 * time.Second},
		crossrefBaseURL: "https://api.crossref.org",
		openLibraryURL:  "https://openlibrary.org",
	}
}

// SetHTTPClient overrides the default HTTP client, mainly for tests.
func (s *ReferenceService) SetHTTPClient(client httpDoer) {
	if client == nil {
		s.http = &http.Client{Timeout: 15 * time.Second}
		return
	}
	s.http = client
}

// SetCrossrefBaseURL overrides the Crossref endpoint, mainly for tests.
func (s *ReferenceService) SetCrossrefBaseURL(base string) {
	s.crossrefBaseURL = strings.TrimRight(strings.TrimSpace(base), "/")
}

// SetOpenLibraryBaseURL overrides the Open Library endpoint, mainly for tests.
func (s *ReferenceService) SetOpenLibraryBaseURL(base string) {
	s.openLibraryURL = strings.TrimRight(strings.TrimSpace(base), "/")
}

type crossrefWork struct {
	Message struct {
		Title  []string `json:"title"`
		Author []struct {
			Given  string `json:"given"`
			Family string `json:"family"`
		} `json:"author"`
		Publisher string `json:"publisher"`
		Issued    struct {
			DateParts [][]int `json:"date-parts"`
		} `json:"issued"`
		DOI string `json:"DOI"`
		URL string `json:"URL"`
	} `json:"message"`
}

// LookupDOI resolves DOI metadata through Crossref.
func (s *ReferenceService) LookupDOI(ctx context.Context, doi string) (*Reference, error) {
	doi = strings.TrimSpace(doi)
	if doi == "" {
		return nil, ErrReferenceNotFound
	}

	endpoint := fmt.Sprintf("%s/works/%s", s.crossrefBaseURL, url.PathEscape(doi))
	body, err := s.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var work crossrefWork
	if err := json.Unmarshal(body, &work); err != nil {
		return nil, fmt.Errorf("parsing crossref response failed: %w", err)
	}

	ref := &Reference{
		Publisher: work.Message.Publisher,
		DOI:       work.Message.DOI,
		URL:       work.Message.URL,
	}
	if len(work.Message.Title) > 0 {
		ref.Title = work.Message.Title[0]
	}
	for _, a := range work.Message.Author {
		name := strings.TrimSpace(a.Given + " " + a.Family)
		if name != "" {
			ref.Authors = append(ref.Authors, name)
		}
	}
	if parts := work.Message.Issued.DateParts; len(parts) > 0 && len(parts[0]) > 0 {
		ref.Year = fmt.Sprintf("%d", parts[0][0])
	}
	return ref, nil
}

type openLibraryBook struct {
	Title   string `json:"title"`
	Authors []struct {
		Name string `json:"name"`
	} `json:"authors"`
	Publishers []struct {
		Name string `json:"name"`
	} `json:"publishers"`
	PublishDate string `json:"publish_date"`
	URL         string `json:"url"`
}

// LookupISBN resolves ISBN metadata through Open Library.
func (s *ReferenceService) LookupISBN(ctx context.Context, isbn string) (*Reference, error) {
	isbn = strings.ReplaceAll(strings.TrimSpace(isbn), "-", "")
	if isbn == "" {
		return nil, ErrReferenceNotFound
	}

	endpoint := fmt.Sprintf("%s/api/books?bibkeys=ISBN:%s&format=json&jscmd=data", s.openLibraryURL, url.QueryEscape(isbn))
	body, err := s.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var payload map[string]openLibraryBook
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parsing open library response failed: %w", err)
	}

	book, ok := payload["ISBN:"+isbn]
	if !ok {
		return nil, ErrReferenceNotFound
	}

	ref := &Reference{
		Title: book.Title,
		ISBN:  isbn,
		URL:   book.URL,
	}
	for _, a := range book.Authors {
		if a.Name != "" {
			ref.Authors = append(ref.Authors, a.Name)
		}
	}
	if len(book.Publishers) > 0 {
		ref.Publisher = book.Publishers[0].Name
	}
	if book.PublishDate != "" {
		ref.Year = book.PublishDate
	}
	return ref, nil
}

func (s *ReferenceService) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request failed: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "afrowiki/1.0")

	client := s.http
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrReferenceNotFound
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("lookup service error: %s", resp.Status)
	}

	return io.ReadAll(io.LimitReader(resp.Body, 1<<20))
}
