package falaichat

import (
	"context"
	"errors"
	"testing"
)

func generatorFor(infos ...ModelInfo) *MockImageGenerator {
	return &MockImageGenerator{
		ModelsFunc: func() []ModelInfo {
			return infos
		},
	}
}

func TestManager_RoutesByModel(t *testing.T) {
	var fluxCalls, sanaCalls int

	fluxGen := generatorFor(ModelInfo{Name: ModelFluxDev})
	fluxGen.GenerateFunc = func(ctx context.Context, req *ProviderRequest) (*GeneratedImage, error) {
		fluxCalls++
		return &GeneratedImage{Data: []byte("flux"), MediaType: "image/png"}, nil
	}
	sanaGen := generatorFor(ModelInfo{Name: ModelSana})
	sanaGen.GenerateFunc = func(ctx context.Context, req *ProviderRequest) (*GeneratedImage, error) {
		sanaCalls++
		return &GeneratedImage{Data: []byte("sana"), MediaType: "image/png"}, nil
	}

	manager := NewManager([]ImageGenerator{fluxGen, sanaGen})

	result, err := manager.Generate(context.Background(), &ProviderRequest{Model: ModelSana, Prompt: "x"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if string(result.Data) != "sana" {
		t.Errorf("result = %q, routed to wrong provider", result.Data)
	}
	if fluxCalls != 0 || sanaCalls != 1 {
		t.Errorf("calls = flux:%d sana:%d", fluxCalls, sanaCalls)
	}
}

func TestManager_UnregisteredModel(t *testing.T) {
	manager := NewManager([]ImageGenerator{generatorFor(ModelInfo{Name: ModelSana})})

	_, err := manager.Generate(context.Background(), &ProviderRequest{Model: ModelFluxDev, Prompt: "x"})
	if !errors.Is(err, ErrModelNotRegistered) {
		t.Errorf("error = %v, want ErrModelNotRegistered", err)
	}
}

func TestManager_AggregatesModels(t *testing.T) {
	manager := NewManager([]ImageGenerator{
		generatorFor(ModelInfo{Name: ModelFluxDev}, ModelInfo{Name: ModelSana}),
		generatorFor(ModelInfo{Name: ModelNanoBanana}),
	})

	models := manager.Models()
	if len(models) != 3 {
		t.Fatalf("models = %d, want 3", len(models))
	}

	if _, ok := manager.GetModelInfo(ModelNanoBanana); !ok {
		t.Error("GetModelInfo(nano-banana-2) = false, want registered")
	}
	if _, ok := manager.GetModelInfo(ModelQwenImageEditPlus); ok {
		t.Error("GetModelInfo on unregistered model returned true")
	}
}

func TestManager_LaterRegistrationWins(t *testing.T) {
	first := generatorFor(ModelInfo{Name: ModelSana, Label: "first"})
	second := generatorFor(ModelInfo{Name: ModelSana, Label: "second"})

	manager := NewManager([]ImageGenerator{first})
	manager.Register(second)

	info, ok := manager.GetModelInfo(ModelSana)
	if !ok || info.Label != "second" {
		t.Errorf("info = %+v, want second registration", info)
	}
	if len(manager.Models()) != 1 {
		t.Errorf("models = %d, want 1", len(manager.Models()))
	}
}

func TestManager_CloseClosesEachProviderOnce(t *testing.T) {
	var closes int
	provider := generatorFor(ModelInfo{Name: ModelFluxDev}, ModelInfo{Name: ModelSana})
	provider.CloseFunc = func() error {
		closes++
		return nil
	}

	failing := generatorFor(ModelInfo{Name: ModelNanoBanana})
	closeErr := errors.New("connection leak")
	failing.CloseFunc = func() error { return closeErr }

	manager := NewManager([]ImageGenerator{provider, failing})
	if err := manager.Close(); !errors.Is(err, closeErr) {
		t.Errorf("Close error = %v, want %v", err, closeErr)
	}
	if closes != 1 {
		t.Errorf("provider closed %d times, want once", closes)
	}

	// A closed manager serves nothing.
	_, err := manager.Generate(context.Background(), &ProviderRequest{Model: ModelSana, Prompt: "x"})
	if !errors.Is(err, ErrModelNotRegistered) {
		t.Errorf("Generate after Close = %v, want ErrModelNotRegistered", err)
	}
}
