package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/AdamBeresnev/bracket-engine/internal/bracket"
	"github.com/AdamBeresnev/bracket-engine/internal/httputil"
	"github.com/AdamBeresnev/bracket-engine/internal/metrics"
	"github.com/AdamBeresnev/bracket-engine/internal/service"
	"github.com/AdamBeresnev/bracket-engine/internal/utils"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const (
	maxBodyBytes   = 1 << 20
	maxNameLength  = 50
	maxShortLength = 10
)

type entrantInput struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	ShortName string   `json:"short_name"`
	Logo      string   `json:"logo"`
	Rating    *float64 `json:"rating"`
	Seed      *int     `json:"seed"`
}

type standingInput struct {
	Entrant  entrantInput `json:"entrant"`
	Wins     int          `json:"wins"`
	Losses   int          `json:"losses"`
	Buchholz int          `json:"buchholz"`
}

type generateInput struct {
	Format          string         `json:"format"`
	SeedingMode     string         `json:"seeding_mode"`
	Entrants        []entrantInput `json:"entrants"`
	ThirdPlaceMatch bool           `json:"third_place_match"`
	GrandFinalReset bool           `json:"grand_final_reset"`
	PlayoffFormat   string         `json:"playoff_format"`
	Swiss           *struct {
		Standings  []standingInput `json:"standings"`
		Qualifiers int             `json:"qualifiers"`
		Rounds     []bracket.Round `json:"rounds"`
	} `json:"swiss"`
}

type resultInput struct {
	Winner int `json:"winner"`
	Score1 int `json:"score1"`
	Score2 int `json:"score2"`
}

func (in entrantInput) entrant() (bracket.Entrant, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return bracket.Entrant{}, fmt.Errorf("entrant name is required")
	}
	if len(name) > maxNameLength {
		return bracket.Entrant{}, fmt.Errorf("entrant name '%s' exceeds %d characters", name, maxNameLength)
	}
	short := strings.TrimSpace(in.ShortName)
	if len(short) > maxShortLength {
		return bracket.Entrant{}, fmt.Errorf("short name '%s' exceeds %d characters", short, maxShortLength)
	}

	return bracket.Entrant{
		ID:        strings.TrimSpace(in.ID),
		Name:      name,
		ShortName: short,
		Logo:      utils.StringOrNil(in.Logo),
		Rating:    utils.OrZero(in.Rating),
		Seed:      utils.OrZero(in.Seed),
	}, nil
}

func (in *generateInput) request() (bracket.GenerateRequest, error) {
	var req bracket.GenerateRequest

	format, err := bracket.ParseFormat(in.Format)
	if err != nil {
		return req, err
	}
	mode, err := bracket.ParseSeedingMode(in.SeedingMode)
	if err != nil {
		return req, err
	}
	req.Format = format
	req.Options = bracket.Options{
		SeedingMode:     mode,
		ThirdPlaceMatch: in.ThirdPlaceMatch,
		GrandFinalReset: in.GrandFinalReset,
	}
	if in.PlayoffFormat != "" {
		if req.Options.PlayoffFormat, err = bracket.ParseFormat(in.PlayoffFormat); err != nil {
			return req, err
		}
	}

	for _, e := range in.Entrants {
		entrant, err := e.entrant()
		if err != nil {
			return req, err
		}
		req.Entrants = append(req.Entrants, entrant)
	}

	if in.Swiss != nil {
		req.Swiss = &bracket.SwissInput{Qualifiers: in.Swiss.Qualifiers, Rounds: in.Swiss.Rounds}
		for _, st := range in.Swiss.Standings {
			entrant, err := st.Entrant.entrant()
			if err != nil {
				return req, err
			}
			req.Swiss.Standings = append(req.Swiss.Standings, bracket.SwissStanding{
				Entrant:  entrant,
				Wins:     st.Wins,
				Losses:   st.Losses,
				Buchholz: st.Buchholz,
			})
		}
	}
	return req, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func newRouter(bracketService *service.BracketService, reader *service.BracketReader, m *metrics.Metrics, origins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Handle("/metrics", m.Handler())

	r.Route("/events/{eventID}", func(r chi.Router) {
		r.Post("/bracket", func(w http.ResponseWriter, r *http.Request) {
			var in generateInput
			if err := decodeJSON(w, r, &in); err != nil {
				httputil.BadRequest(w, "Invalid JSON body", err)
				return
			}
			req, err := in.request()
			if err != nil {
				if metrics.IsCallerError(err) {
					httputil.Error(w, "Failed to generate bracket", err)
				} else {
					httputil.BadRequest(w, err.Error(), err)
				}
				return
			}

			rec, err := bracketService.Generate(r.Context(), chi.URLParam(r, "eventID"), req)
			if err != nil {
				httputil.Error(w, "Failed to generate bracket", err)
				return
			}
			httputil.WriteJSON(w, http.StatusCreated, service.NewBracketView(rec))
		})

		r.Get("/bracket", func(w http.ResponseWriter, r *http.Request) {
			view, err := reader.Current(r.Context(), chi.URLParam(r, "eventID"))
			if err != nil {
				httputil.Error(w, "Failed to get bracket", err)
				return
			}
			httputil.WriteJSON(w, http.StatusOK, view)
		})

		r.Post("/bracket/reset", func(w http.ResponseWriter, r *http.Request) {
			rec, err := bracketService.ResetBracket(r.Context(), chi.URLParam(r, "eventID"))
			if err != nil {
				httputil.Error(w, "Failed to reset bracket", err)
				return
			}
			httputil.WriteJSON(w, http.StatusOK, service.NewBracketView(rec))
		})

		r.Get("/history", func(w http.ResponseWriter, r *http.Request) {
			order := service.NewestFirst
			switch r.URL.Query().Get("order") {
			case "", "desc":
			case "asc":
				order = service.OldestFirst
			default:
				httputil.BadRequest(w, "order must be 'asc' or 'desc'", nil)
				return
			}

			history, err := reader.History(r.Context(), chi.URLParam(r, "eventID"), order)
			if err != nil {
				httputil.Error(w, "Failed to get history", err)
				return
			}
			httputil.WriteJSON(w, http.StatusOK, history)
		})

		r.Post("/matches/{matchID}/result", func(w http.ResponseWriter, r *http.Request) {
			var in resultInput
			if err := decodeJSON(w, r, &in); err != nil {
				httputil.BadRequest(w, "Invalid JSON body", err)
				return
			}

			rec, err := bracketService.ReportResult(r.Context(), chi.URLParam(r, "eventID"), bracket.Result{
				MatchID: chi.URLParam(r, "matchID"),
				Winner:  in.Winner,
				Score1:  in.Score1,
				Score2:  in.Score2,
			})
			if err != nil {
				httputil.Error(w, "Failed to report result", err)
				return
			}
			httputil.WriteJSON(w, http.StatusOK, service.NewBracketView(rec))
		})

		r.Post("/matches/{matchID}/start", func(w http.ResponseWriter, r *http.Request) {
			rec, err := bracketService.StartMatch(r.Context(), chi.URLParam(r, "eventID"), chi.URLParam(r, "matchID"))
			if err != nil {
				httputil.Error(w, "Failed to start match", err)
				return
			}
			httputil.WriteJSON(w, http.StatusOK, service.NewBracketView(rec))
		})
	})

	return r
}
