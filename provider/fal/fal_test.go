package fal

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	falaichat "github.com/laruss/falai-chat"
)

func newTestGenerator(t *testing.T, handler http.Handler) *Generator {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	gen, err := New(&falaichat.ProviderConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return gen
}

func dataURLResponse(data []byte, contentType string) string {
	encoded := base64.StdEncoding.EncodeToString(data)
	return fmt.Sprintf(`{
		"images": [{"url": "data:%s;base64,%s", "width": 1024, "height": 1024, "content_type": %q}],
		"seed": 42
	}`, contentType, encoded, contentType)
}

func TestGenerate_SyncModeDataURI(t *testing.T) {
	imageBytes := []byte("png-bytes")
	var gotPath, gotAuth string
	var gotBody map[string]any

	gen := newTestGenerator(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		fmt.Fprint(w, dataURLResponse(imageBytes, "image/png"))
	}))

	settings, err := falaichat.ResolveSettings(falaichat.ModelSana, nil)
	if err != nil {
		t.Fatalf("ResolveSettings: %v", err)
	}

	image, err := gen.Generate(context.Background(), &falaichat.ProviderRequest{
		Model:    falaichat.ModelSana,
		Prompt:   "a lighthouse",
		Settings: settings,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if gotPath != "/"+falaichat.ModelSana.String() {
		t.Errorf("path = %q, want model endpoint", gotPath)
	}
	if gotAuth != "Key test-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotBody["prompt"] != "a lighthouse" {
		t.Errorf("prompt = %v", gotBody["prompt"])
	}
	if gotBody["sync_mode"] != true {
		t.Errorf("sync_mode = %v, want true", gotBody["sync_mode"])
	}
	if gotBody["image_size"] != "square_hd" {
		t.Errorf("image_size = %v", gotBody["image_size"])
	}
	if gotBody["output_format"] != "png" {
		t.Errorf("output_format = %v", gotBody["output_format"])
	}
	if _, present := gotBody["image_urls"]; present {
		t.Error("image_urls should be omitted for text-to-image")
	}

	if string(image.Data) != string(imageBytes) {
		t.Errorf("data = %q", image.Data)
	}
	if image.MediaType != "image/png" {
		t.Errorf("mediaType = %q", image.MediaType)
	}
	if image.Seed != 42 {
		t.Errorf("seed = %d, want 42", image.Seed)
	}
}

func TestGenerate_FetchesCDNURL(t *testing.T) {
	imageBytes := []byte("cdn-bytes")

	mux := http.NewServeMux()
	var cdnURL string
	mux.HandleFunc("/cdn/image.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(imageBytes)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"images": [{"url": %q, "content_type": ""}], "seed": 7}`, cdnURL)
	})

	gen := newTestGenerator(t, mux)
	cdnURL = gen.baseURL + "/cdn/image.png"

	image, err := gen.Generate(context.Background(), &falaichat.ProviderRequest{
		Model:  falaichat.ModelFluxDev,
		Prompt: "a lighthouse",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if string(image.Data) != string(imageBytes) {
		t.Errorf("data = %q", image.Data)
	}
	if image.MediaType != "image/png" {
		t.Errorf("mediaType = %q, want value from fetch response", image.MediaType)
	}
}

func TestGenerate_ForwardsImageURLs(t *testing.T) {
	var gotBody struct {
		ImageURLs []string `json:"image_urls"`
	}

	gen := newTestGenerator(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		fmt.Fprint(w, dataURLResponse([]byte("x"), "image/png"))
	}))

	urls := []string{"data:image/png;base64,QQ==", "https://example.com/b.png"}
	_, err := gen.Generate(context.Background(), &falaichat.ProviderRequest{
		Model:     falaichat.ModelQwenImageEditPlus,
		Prompt:    "merge these",
		ImageURLs: urls,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(gotBody.ImageURLs) != 2 || gotBody.ImageURLs[0] != urls[0] || gotBody.ImageURLs[1] != urls[1] {
		t.Errorf("image_urls = %v, want %v", gotBody.ImageURLs, urls)
	}
}

func TestGenerate_EmptyPrompt(t *testing.T) {
	gen := newTestGenerator(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not reach the API")
	}))

	_, err := gen.Generate(context.Background(), &falaichat.ProviderRequest{
		Model: falaichat.ModelSana,
	})
	if !errors.Is(err, falaichat.ErrEmptyPrompt) {
		t.Errorf("error = %v, want ErrEmptyPrompt", err)
	}
}

func TestGenerate_TooManyInputImages(t *testing.T) {
	gen := newTestGenerator(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not reach the API")
	}))

	urls := make([]string, QwenImageEditPlusInfo.MaxInputImages+1)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://example.com/%d.png", i)
	}

	_, err := gen.Generate(context.Background(), &falaichat.ProviderRequest{
		Model:     falaichat.ModelQwenImageEditPlus,
		Prompt:    "merge",
		ImageURLs: urls,
	})
	if !errors.Is(err, falaichat.ErrTooManyImages) {
		t.Errorf("error = %v, want ErrTooManyImages", err)
	}
}

func TestGenerate_ErrorDetail(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{
			name:    "string detail",
			status:  http.StatusForbidden,
			body:    `{"detail": "Exhausted balance"}`,
			wantMsg: "Exhausted balance",
		},
		{
			name:    "validation detail array",
			status:  http.StatusUnprocessableEntity,
			body:    `{"detail": [{"loc": ["body", "prompt"], "msg": "field required"}]}`,
			wantMsg: "field required",
		},
		{
			name:    "opaque body",
			status:  http.StatusBadGateway,
			body:    `upstream timeout`,
			wantMsg: "fal.run returned status 502",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := newTestGenerator(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))

			_, err := gen.Generate(context.Background(), &falaichat.ProviderRequest{
				Model:  falaichat.ModelSana,
				Prompt: "a lighthouse",
			})
			if !falaichat.IsProviderError(err) {
				t.Fatalf("error = %v, want ProviderError", err)
			}
			var provErr *falaichat.ProviderError
			errors.As(err, &provErr)
			if provErr.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", provErr.Message, tt.wantMsg)
			}
		})
	}
}

func TestGenerate_NoImagesInResponse(t *testing.T) {
	gen := newTestGenerator(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"images": [], "seed": 1}`)
	}))

	_, err := gen.Generate(context.Background(), &falaichat.ProviderRequest{
		Model:  falaichat.ModelSana,
		Prompt: "a lighthouse",
	})
	if !falaichat.IsProviderError(err) {
		t.Errorf("error = %v, want ProviderError", err)
	}
}

func TestNew_RequiresAPIKey(t *testing.T) {
	t.Setenv(apiKeyEnv, "")
	if _, err := New(&falaichat.ProviderConfig{}); err == nil {
		t.Error("New without key succeeded, want error")
	}
}

func TestModels(t *testing.T) {
	gen := newTestGenerator(t, http.NotFoundHandler())

	models := gen.Models()
	if len(models) != 3 {
		t.Fatalf("models = %d, want 3", len(models))
	}

	byName := make(map[falaichat.Model]falaichat.ModelInfo, len(models))
	for _, info := range models {
		byName[info.Name] = info
	}

	qwen := byName[falaichat.ModelQwenImageEditPlus]
	if qwen.Capabilities.CanGenerateImages || !qwen.Capabilities.CanEditImages {
		t.Errorf("qwen capabilities = %+v, want edit only", qwen.Capabilities)
	}
	flux := byName[falaichat.ModelFluxDev]
	if !flux.Capabilities.CanGenerateImages || flux.Capabilities.CanEditImages {
		t.Errorf("flux capabilities = %+v, want generate only", flux.Capabilities)
	}
}
