package advisory

import (
	"context"
	"sync"
)

// Fake is an in-memory Service used in handler tests.
type Fake struct {
	mu sync.Mutex

	Analysis      *SoilAnalysis
	AnalysisErr   error
	Crops         []CropRecommendation
	CropsErr      error
	Fertilizer    map[string]*FertilizerPlan
	FertilizerErr map[string]error
	Pesticides    []PesticideRecommendation
	PesticidesErr error

	FertilizerCalls   []FertilizerQuery
}

func NewFake() *Fake {
	return &Fake{
		Analysis:      &SoilAnalysis{Fertility: "moderate", Score: 0.6},
		Fertilizer:    make(map[string]*FertilizerPlan),
		FertilizerErr: make(map[string]error),
	}
}

func (f *Fake) AnalyzeSoil(ctx context.Context, sample SoilSample) (*SoilAnalysis, error) {
	return f.Analysis, f.AnalysisErr
}

func (f *Fake) RecommendCrops(ctx context.Context, q CropQuery) ([]CropRecommendation, error) {
	return f.Crops, f.CropsErr
}

func (f *Fake) RecommendFertilizer(ctx context.Context, q FertilizerQuery) (*FertilizerPlan, error) {
	f.mu.Lock()
	f.FertilizerCalls = append(f.FertilizerCalls, q)
	f.mu.Unlock()
	if err := f.FertilizerErr[q.Crop]; err != nil {
		return nil, err
	}
	if p, ok := f.Fertilizer[q.Crop]; ok {
		return p, nil
	}
	return &FertilizerPlan{EstimatedCost: q.Budget}, nil
}

func (f *Fake) RecommendPesticides(ctx context.Context, q PesticideQuery) ([]PesticideRecommendation, error) {
	return f.Pesticides, f.PesticidesErr
}
