// Package api exposes the resolver and roster over a small read-only
// HTTP surface. Transport failures and no-match results map to
// distinct status codes so clients can tell "the service is down"
// from "no district matches".
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/civicteam/mandat/pkg/resolve"
	"github.com/civicteam/mandat/pkg/roster"
	"github.com/civicteam/mandat/pkg/sejm"
)

// Resolver is the district-resolution slice the API needs.
type Resolver interface {
	ResolveDistrict(ctx context.Context, postalCode string) (int, error)
}

// LinkBuilder builds photo and voting-detail URLs.
type LinkBuilder interface {
	PhotoURL(mpID int) string
	VotingPageURL(sitting, votingNumber int) string
}

// Handler serves the HTTP API. The roster is fetched once per session
// and re-fetched wholesale on refresh.
type Handler struct {
	resolver   Resolver
	source     roster.Source
	aggregator *roster.Aggregator
	links      LinkBuilder
	logger     *log.Logger

	mu     sync.Mutex
	mps    []sejm.MP
	loaded bool
}

// NewHandler creates an API handler.
func NewHandler(resolver Resolver, source roster.Source, aggregator *roster.Aggregator, links LinkBuilder, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{
		resolver:   resolver,
		source:     source,
		aggregator: aggregator,
		links:      links,
		logger:     logger,
	}
}

// Router builds the chi router for the API.
func (handler *Handler) Router() chi.Router {
	router := chi.NewRouter()
	router.Get("/district/{postalCode}", handler.handleDistrict)
	router.Get("/mps", handler.handleRoster)
	router.Get("/mps/{id}/votes", handler.handleVotes)
	router.Post("/mps/{id}/votes/more", handler.handleMoreVotes)
	router.Post("/refresh", handler.handleRefresh)
	return router
}

// NewServer wraps the handler in an http.Server with sane defaults.
func NewServer(addr string, handler *Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

type districtResponse struct {
	PostalCode string `json:"postalCode"`
	District   int    `json:"district"`
}

type mpResponse struct {
	ID             int    `json:"id"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Club           string `json:"club"`
	DistrictNumber int    `json:"districtNumber"`
	PhotoURL       string `json:"photoUrl"`
}

type voteResponse struct {
	Topic        string `json:"topic"`
	Vote         string `json:"vote"`
	Label        string `json:"label"`
	Date         string `json:"date"`
	Sitting      int    `json:"sitting"`
	VotingNumber int    `json:"votingNumber"`
	DetailURL    string `json:"detailUrl"`
}

type votesResponse struct {
	MPID       int            `json:"mpId"`
	WindowDays int            `json:"windowDays"`
	Votes      []voteResponse `json:"votes"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (handler *Handler) handleDistrict(w http.ResponseWriter, r *http.Request) {
	postalCode := chi.URLParam(r, "postalCode")

	number, err := handler.resolver.ResolveDistrict(r.Context(), postalCode)
	switch {
	case errors.Is(err, resolve.ErrNoMatch):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "could not determine district"})
	case err != nil:
		handler.logger.Printf("district resolution failed for %q: %v", postalCode, err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "geocoding service unavailable"})
	default:
		writeJSON(w, http.StatusOK, districtResponse{PostalCode: postalCode, District: number})
	}
}

func (handler *Handler) handleRoster(w http.ResponseWriter, r *http.Request) {
	mps, err := handler.sessionRoster(r.Context())
	if err != nil {
		handler.logger.Printf("roster fetch failed: %v", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "roster unavailable"})
		return
	}

	district := 0
	if raw := r.URL.Query().Get("district"); raw != "" {
		district, err = strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "district must be a number"})
			return
		}
	}
	filtered := roster.Filter(mps, district, r.URL.Query().Get("name"))

	responses := make([]mpResponse, 0, len(filtered))
	for _, mp := range filtered {
		responses = append(responses, mpResponse{
			ID:             mp.ID,
			FirstName:      mp.FirstName,
			LastName:       mp.LastName,
			Club:           mp.ClubOrIndependent(),
			DistrictNumber: mp.DistrictNumber,
			PhotoURL:       handler.links.PhotoURL(mp.ID),
		})
	}
	writeJSON(w, http.StatusOK, responses)
}

func (handler *Handler) handleVotes(w http.ResponseWriter, r *http.Request) {
	handler.serveVotes(w, r, handler.aggregator.LoadVotes)
}

func (handler *Handler) handleMoreVotes(w http.ResponseWriter, r *http.Request) {
	handler.serveVotes(w, r, handler.aggregator.LoadMore)
}

func (handler *Handler) serveVotes(w http.ResponseWriter, r *http.Request, load func(context.Context, int) ([]sejm.VoteRecord, error)) {
	mpID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "representative id must be a number"})
		return
	}

	votes, err := load(r.Context(), mpID)
	switch {
	case errors.Is(err, roster.ErrLoadInProgress):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "a vote load is already in flight"})
		return
	case err != nil:
		handler.logger.Printf("vote load failed for MP %d: %v", mpID, err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "voting data unavailable"})
		return
	}

	responses := make([]voteResponse, 0, len(votes))
	for _, vote := range votes {
		responses = append(responses, voteResponse{
			Topic:        vote.Topic,
			Vote:         string(vote.Vote),
			Label:        vote.Vote.Label(),
			Date:         vote.Date.Format("2006-01-02"),
			Sitting:      vote.Sitting,
			VotingNumber: vote.VotingNumber,
			DetailURL:    handler.links.VotingPageURL(vote.Sitting, vote.VotingNumber),
		})
	}
	writeJSON(w, http.StatusOK, votesResponse{
		MPID:       mpID,
		WindowDays: handler.aggregator.State(mpID).WindowDays,
		Votes:      responses,
	})
}

func (handler *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	handler.mu.Lock()
	handler.mps = nil
	handler.loaded = false
	handler.mu.Unlock()
	handler.aggregator.Invalidate()
	w.WriteHeader(http.StatusNoContent)
}

// sessionRoster returns the cached roster, fetching it on first use.
func (handler *Handler) sessionRoster(ctx context.Context) ([]sejm.MP, error) {
	handler.mu.Lock()
	defer handler.mu.Unlock()

	if handler.loaded {
		return handler.mps, nil
	}
	mps, err := roster.FetchRoster(ctx, handler.source)
	if err != nil {
		return nil, err
	}
	handler.mps = mps
	handler.loaded = true
	return mps, nil
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}
