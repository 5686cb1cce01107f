package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelforge/reelforge/pkg/bus"
	"github.com/reelforge/reelforge/pkg/config"
	"github.com/reelforge/reelforge/pkg/coordinator"
	"github.com/reelforge/reelforge/pkg/models"
	"github.com/reelforge/reelforge/pkg/services"
)

type fakeSubmitter struct {
	lastSub    coordinator.Submission
	submitID   uuid.UUID
	submitErr  error
	cancelable map[uuid.UUID]bool
}

func (f *fakeSubmitter) Submit(ctx context.Context, sub coordinator.Submission) (uuid.UUID, error) {
	f.lastSub = sub
	if f.submitErr != nil {
		return uuid.Nil, f.submitErr
	}
	return f.submitID, nil
}

func (f *fakeSubmitter) Cancel(id uuid.UUID) bool { return f.cancelable[id] }

type fakeReader struct {
	gens          map[string]*models.Generation
	conversations map[string][]models.AgentInteraction
}

func (f *fakeReader) GetGeneration(ctx context.Context, id string) (*models.Generation, error) {
	gen, ok := f.gens[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", services.ErrNotFound, id)
	}
	return gen, nil
}

func (f *fakeReader) GetConversation(ctx context.Context, id string) ([]models.AgentInteraction, error) {
	conv, ok := f.conversations[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", services.ErrNotFound, id)
	}
	return conv, nil
}

func newTestServer(submitter *fakeSubmitter, reader *fakeReader, b *bus.Bus) *Server {
	cfg := &config.Config{
		Storage: config.StorageConfig{MaxImageBytes: 1024},
	}
	if b == nil {
		b = bus.New(16, nil)
	}
	return NewServer(cfg, nil, submitter, reader, b, nil)
}

type formFile struct {
	field, name, contentType string
	data                     []byte
}

func multipartBody(t *testing.T, fields map[string]string, files ...formFile) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name=%q; filename=%q`, f.field, f.name))
		h.Set("Content-Type", f.contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestSubmitGeneration(t *testing.T) {
	id := uuid.New()
	submitter := &fakeSubmitter{submitID: id}
	srv := newTestServer(submitter, &fakeReader{}, nil)
	router := srv.Router()

	body, contentType := multipartBody(t, map[string]string{
		"user_id":                 "user-1",
		"prompt":                  "Luxurious perfume advertisement, aspirational tone",
		"title":                   "Perfume Launch",
		"brand_name":              "Aurelle",
		"target_duration_seconds": "45",
		"generate_videos":         "false",
	}, formFile{"images", "bottle.png", "image/png", []byte{0x89, 0x50}})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/generations", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, id.String(), resp["generation_id"])
	assert.Equal(t, "processing", resp["status"])

	sub := submitter.lastSub
	assert.Equal(t, "user-1", sub.UserID)
	assert.Equal(t, 45, sub.TargetDurationSeconds)
	require.NotNil(t, sub.GenerateVideos)
	assert.False(t, *sub.GenerateVideos)
	require.Len(t, sub.Images, 1)
	assert.Equal(t, 1, sub.Images[0].Index)
	assert.Equal(t, "bottle.png", sub.Images[0].Name)
	assert.Equal(t, "image/png", sub.Images[0].MIMEType)
	assert.Equal(t, []byte{0x89, 0x50}, sub.Images[0].Data)
}

func TestSubmitGeneration_Errors(t *testing.T) {
	tests := []struct {
		name       string
		submitErr  error
		fields     map[string]string
		files      []formFile
		wantStatus int
	}{
		{
			name:       "validation failure",
			submitErr:  &coordinator.InvalidInputError{Reason: "prompt must be 10-2000 characters"},
			fields:     map[string]string{"prompt": "short"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "duplicate generation id",
			submitErr:  fmt.Errorf("creating generation record: %w", services.ErrAlreadyExists),
			fields:     map[string]string{"prompt": "Luxurious perfume advertisement"},
			wantStatus: http.StatusConflict,
		},
		{
			name:       "non-integer duration",
			fields:     map[string]string{"target_duration_seconds": "soon"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "non-boolean flag",
			fields:     map[string]string{"generate_scenes": "maybe"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:   "oversized image",
			fields: map[string]string{"prompt": "Luxurious perfume advertisement"},
			files: []formFile{{
				"images", "huge.png", "image/png", make([]byte, 2048),
			}},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unexpected error",
			submitErr:  errors.New("database unavailable"),
			fields:     map[string]string{"prompt": "Luxurious perfume advertisement"},
			wantStatus: http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(&fakeSubmitter{submitErr: tt.submitErr}, &fakeReader{}, nil)
			body, contentType := multipartBody(t, tt.fields, tt.files...)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/generations", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			srv.Router().ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestGetGeneration(t *testing.T) {
	id := uuid.NewString()
	now := time.Now().UTC()
	reader := &fakeReader{gens: map[string]*models.Generation{
		id: {
			ID:             id,
			UserID:         "user-1",
			Status:         models.GenerationStatusCompleted,
			FinalVideoPath: "/user-1/" + id + "/final_video_1.mp4",
			NumScenes:      4,
			StoryScore:     88,
			CreatedAt:      now,
		},
	}}
	srv := newTestServer(&fakeSubmitter{}, reader, nil)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/generations/"+id, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.Generation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, models.GenerationStatusCompleted, got.Status)
	assert.Equal(t, 4, got.NumScenes)

	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec,
		httptest.NewRequest(http.MethodGet, "/api/v1/generations/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetConversation(t *testing.T) {
	id := uuid.NewString()
	reader := &fakeReader{conversations: map[string][]models.AgentInteraction{
		id: {
			{AgentName: "story_director", InteractionType: models.InteractionPrompt, Content: "write"},
			{AgentName: "story_critic", InteractionType: models.InteractionResponse, Content: `{"score":87}`},
		},
	}}
	srv := newTestServer(&fakeSubmitter{}, reader, nil)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec,
		httptest.NewRequest(http.MethodGet, "/api/v1/generations/"+id+"/conversation", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		GenerationID string                    `json:"generation_id"`
		Interactions []models.AgentInteraction `json:"interactions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, id, resp.GenerationID)
	require.Len(t, resp.Interactions, 2)
	assert.Equal(t, "story_director", resp.Interactions[0].AgentName)

	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec,
		httptest.NewRequest(http.MethodGet, "/api/v1/generations/"+uuid.NewString()+"/conversation", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCancelGeneration(t *testing.T) {
	running := uuid.New()
	submitter := &fakeSubmitter{cancelable: map[uuid.UUID]bool{running: true}}
	srv := newTestServer(submitter, &fakeReader{}, nil)
	router := srv.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec,
		httptest.NewRequest(http.MethodPost, "/api/v1/generations/"+running.String()+"/cancel", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec,
		httptest.NewRequest(http.MethodPost, "/api/v1/generations/"+uuid.NewString()+"/cancel", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec,
		httptest.NewRequest(http.MethodPost, "/api/v1/generations/not-a-uuid/cancel", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth_NoDatabase(t *testing.T) {
	srv := newTestServer(&fakeSubmitter{}, &fakeReader{}, nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
	assert.Contains(t, resp["version"], "reelforge/")
}
