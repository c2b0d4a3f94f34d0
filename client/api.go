// Package client drives a player's view of a game: it talks to the game
// server's REST surface and reconciles the server's authoritative
// completion state with the locally cached topic and lock choices.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/life4today/life4today/game"
	"github.com/life4today/life4today/topic"
)

// ErrTransport wraps network and decode failures. Read-only calls that fail
// this way leave local state untouched so the caller can retry.
var ErrTransport = errors.New("transport failure")

// ServerError is a structured failure the server reported, such as a
// missing game or an invalid topic. Never retried automatically.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	return fmt.Sprintf("server returned status %d", e.Status)
}

// GameInfo is the server's view of a game, with per-player derived fields.
type GameInfo struct {
	ID      string          `json:"id"`
	Players []PlayerSummary `json:"players"`
	Topics  []topic.Topic   `json:"topics"`
}

// PlayerSummary carries the completion-derived fields the server computes
// from each player's photo list.
type PlayerSummary struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	PhotoCount      int           `json:"photoCount"`
	CompletedTopics []topic.Topic `json:"completedTopics"`
	LastActive      time.Time     `json:"lastActive"`
}

// PlayerState is the join response: identity plus the full photo list.
type PlayerState struct {
	ID     string       `json:"id"`
	Name   string       `json:"name"`
	Photos []game.Photo `json:"photos"`
}

// ShareResult is the server-built share text with its counts.
type ShareResult struct {
	Text           string
	CompletedCount int
	MissingCount   int
}

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`

	GameID         string        `json:"gameId"`
	Topics         []topic.Topic `json:"topics"`
	Game           *GameInfo     `json:"game"`
	Player         *PlayerState  `json:"player"`
	Photo          *game.Photo   `json:"photo"`
	Photos         []game.Photo  `json:"photos"`
	ShareText      string        `json:"shareText"`
	CompletedCount int           `json:"completedCount"`
	MissingCount   int           `json:"missingCount"`
}

// API is an HTTP client for the game server.
type API struct {
	base string
	hc   *http.Client
}

// NewAPI returns an API rooted at base, e.g. "http://localhost:8080".
func NewAPI(base string) *API {
	return &API{
		base: strings.TrimSuffix(base, "/"),
		hc:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (a *API) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*envelope, error) {
	req, err := http.NewRequestWithContext(ctx, method, a.base+path, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := a.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrTransport, err)
	}

	if !env.Success || resp.StatusCode >= http.StatusBadRequest {
		return nil, &ServerError{Status: resp.StatusCode, Message: env.Message}
	}

	return &env, nil
}

func (a *API) doJSON(ctx context.Context, method, path string, payload any) (*envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrTransport, err)
	}

	return a.do(ctx, method, path, bytes.NewReader(data), "application/json")
}

// CreateGame registers a new game and returns its ID plus the topic
// catalog.
func (a *API) CreateGame(ctx context.Context) (string, []topic.Topic, error) {
	env, err := a.do(ctx, http.MethodPost, "/games", nil, "")
	if err != nil {
		return "", nil, err
	}

	return env.GameID, env.Topics, nil
}

// GetGame fetches the game's membership and derived completion fields.
func (a *API) GetGame(ctx context.Context, gameID string) (*GameInfo, error) {
	env, err := a.do(ctx, http.MethodGet, "/games/"+gameID, nil, "")
	if err != nil {
		return nil, err
	}
	if env.Game == nil {
		return nil, fmt.Errorf("%w: empty game payload", ErrTransport)
	}

	return env.Game, nil
}

// JoinGame joins (or idempotently rejoins) the game as playerName. An empty
// playerID lets the server assign one.
func (a *API) JoinGame(ctx context.Context, gameID, playerName, playerID string) (*PlayerState, error) {
	env, err := a.doJSON(ctx, http.MethodPost, "/games/"+gameID+"/players", map[string]string{
		"playerName": playerName,
		"playerId":   playerID,
	})
	if err != nil {
		return nil, err
	}
	if env.Player == nil {
		return nil, fmt.Errorf("%w: empty player payload", ErrTransport)
	}

	return env.Player, nil
}

// UploadPhoto sends data as a multipart upload for t.
func (a *API) UploadPhoto(ctx context.Context, gameID, playerID string, t topic.Topic, filename string, data []byte) (*game.Photo, error) {
	var buf bytes.Buffer

	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("photo", filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	if err := mw.WriteField("topic", string(t)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	path := "/games/" + gameID + "/players/" + playerID + "/photos"

	env, err := a.do(ctx, http.MethodPost, path, &buf, mw.FormDataContentType())
	if err != nil {
		return nil, err
	}
	if env.Photo == nil {
		return nil, fmt.Errorf("%w: empty photo payload", ErrTransport)
	}

	return env.Photo, nil
}

// PlayerPhotos lists the player's authoritative photo set.
func (a *API) PlayerPhotos(ctx context.Context, gameID, playerID string) ([]game.Photo, error) {
	env, err := a.do(ctx, http.MethodGet, "/games/"+gameID+"/players/"+playerID+"/photos", nil, "")
	if err != nil {
		return nil, err
	}

	return env.Photos, nil
}

// DeletePhoto removes one photo and releases its backing file server-side.
func (a *API) DeletePhoto(ctx context.Context, gameID, playerID, photoID string) error {
	path := "/games/" + gameID + "/players/" + playerID + "/photos/" + photoID

	_, err := a.do(ctx, http.MethodDelete, path, nil, "")

	return err
}

// ShareText asks the server for the "completed" or "reminder" share copy.
func (a *API) ShareText(ctx context.Context, gameID, playerID, shareType string) (*ShareResult, error) {
	env, err := a.doJSON(ctx, http.MethodPost, "/games/"+gameID+"/players/"+playerID+"/share", map[string]string{
		"type": shareType,
	})
	if err != nil {
		return nil, err
	}

	return &ShareResult{
		Text:           env.ShareText,
		CompletedCount: env.CompletedCount,
		MissingCount:   env.MissingCount,
	}, nil
}
