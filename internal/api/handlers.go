package api

import (
	"fmt"
	"net/http"

	"github.com/cognicore/revlens/pkg/revlens/negative"
	"github.com/cognicore/revlens/pkg/revlens/profile"
	"github.com/cognicore/revlens/pkg/revlens/rank"
)

// RecommendResponse lists recommendations for one customer.
type RecommendResponse struct {
	CustomerID      int64                 `json:"customer_id"`
	Recommendations []rank.Recommendation `json:"recommendations"`
	TotalCount      int                   `json:"total_count"`
	GeneratedAt     string                `json:"generated_at"`
}

// NegativeAnalysisResponse lists products in improvement priority order.
type NegativeAnalysisResponse struct {
	GeneratedAt           string                    `json:"generated_at"`
	TotalProductsAnalyzed int                       `json:"total_products_analyzed"`
	Priorities            []negative.PriorityRecord `json:"improvement_priority_list"`
}

// ProfileResponse shows the heaviest keywords of a customer or product.
// Exactly one of CustomerID and ProductID is set.
type ProfileResponse struct {
	CustomerID    *int64               `json:"customer_id,omitempty"`
	ProductID     *int64               `json:"product_id,omitempty"`
	TotalKeywords int                  `json:"total_keywords"`
	TopKeywords   []rank.KeywordWeight `json:"top_keywords"`
	GeneratedAt   string               `json:"generated_at"`
}

// OverviewResponse summarizes the review dataset.
type OverviewResponse struct {
	Overview              OverviewCounts          `json:"overview"`
	SentimentDistribution map[string]SentimentBin `json:"sentiment_distribution"`
	GeneratedAt           string                  `json:"generated_at"`
}

// OverviewCounts are dataset-wide totals.
type OverviewCounts struct {
	TotalCustomers int     `json:"total_customers"`
	TotalProducts  int     `json:"total_products"`
	TotalReviews   int     `json:"total_reviews"`
	AverageRating  float64 `json:"average_rating"`
}

// SentimentBin is one sentiment label's share of all reviews.
type SentimentBin struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, StatusResponse{
		Status:    "running",
		Message:   "review analytics and recommendation API is up",
		Timestamp: s.timestamp(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, StatusResponse{
		Status:    "healthy",
		Message:   "all systems nominal",
		Timestamp: s.timestamp(),
	})
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var (
		req RecommendRequest
		err error
	)
	if req.CustomerID, err = pathID(r, "customer_id"); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.TopN, err = queryInt(r, "top_n", DefaultTopN); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ExcludePurchased, err = queryBool(r, "exclude_purchased", true); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateRequest(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	recs, err := s.engine.Recommend(r.Context(), req.CustomerID, req.TopN, req.ExcludePurchased)
	if err != nil {
		s.respondFailure(w, r, "recommendation", err)
		return
	}
	if len(recs) == 0 {
		s.respondError(w, http.StatusNotFound, fmt.Sprintf(
			"no recommendations for customer %d: no positive reviews or unknown customer", req.CustomerID))
		return
	}

	s.respondJSON(w, http.StatusOK, RecommendResponse{
		CustomerID:      req.CustomerID,
		Recommendations: recs,
		TotalCount:      len(recs),
		GeneratedAt:     s.timestamp(),
	})
}

func (s *Server) handleNegativeAnalysis(w http.ResponseWriter, r *http.Request) {
	var (
		req NegativeAnalysisRequest
		err error
	)
	if req.TopN, err = queryInt(r, "top_n", DefaultTopN); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateRequest(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := s.engine.ImprovementPriority(r.Context(), req.TopN)
	if err != nil {
		s.respondFailure(w, r, "negative review analysis", err)
		return
	}
	if len(records) == 0 {
		s.respondError(w, http.StatusNotFound, "no negative reviews to analyze")
		return
	}

	s.respondJSON(w, http.StatusOK, NegativeAnalysisResponse{
		GeneratedAt:           s.timestamp(),
		TotalProductsAnalyzed: len(records),
		Priorities:            records,
	})
}

func (s *Server) handleProductProfile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "product_id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, ok, err := s.engine.ProductProfile(r.Context(), id)
	if err != nil {
		s.respondFailure(w, r, "product profile", err)
		return
	}
	if !ok {
		s.respondError(w, http.StatusNotFound, fmt.Sprintf("no profile for product %d", id))
		return
	}
	resp := s.profileResponse(p)
	resp.ProductID = &id
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCustomerProfile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "customer_id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := s.engine.BuildCustomerProfile(r.Context(), id)
	if err != nil {
		s.respondFailure(w, r, "customer profile", err)
		return
	}
	if len(p) == 0 {
		s.respondError(w, http.StatusNotFound, fmt.Sprintf(
			"no profile for customer %d: no positive reviews or unknown customer", id))
		return
	}
	resp := s.profileResponse(p)
	resp.CustomerID = &id
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) profileResponse(p profile.KeywordProfile) ProfileResponse {
	top := p.Top(ProfileKeywordLimit)
	kws := make([]rank.KeywordWeight, len(top))
	for i, kw := range top {
		kws[i] = rank.KeywordWeight{Keyword: kw.Keyword, Weight: rank.Round(kw.Weight, 4)}
	}
	return ProfileResponse{
		TotalKeywords: len(p),
		TopKeywords:   kws,
		GeneratedAt:   s.timestamp(),
	}
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	o, err := s.engine.Overview(r.Context())
	if err != nil {
		s.respondFailure(w, r, "statistics", err)
		return
	}

	share := func(n int) SentimentBin {
		bin := SentimentBin{Count: n}
		if o.TotalReviews > 0 {
			bin.Percentage = rank.Round(float64(n)/float64(o.TotalReviews)*100, 1)
		}
		return bin
	}
	s.respondJSON(w, http.StatusOK, OverviewResponse{
		Overview: OverviewCounts{
			TotalCustomers: o.TotalCustomers,
			TotalProducts:  o.TotalProducts,
			TotalReviews:   o.TotalReviews,
			AverageRating:  rank.Round(o.AverageRating, 2),
		},
		SentimentDistribution: map[string]SentimentBin{
			"positive": share(o.PositiveCount),
			"negative": share(o.NegativeCount),
			"neutral":  share(o.NeutralCount),
		},
		GeneratedAt: s.timestamp(),
	})
}
