package dashboard

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/mpsp-digital/jurist-prompts-hub/internal/repository"

	"go.uber.org/zap"
)

// ErrInvalidPeriod flags a period query whose bounds are missing or inverted.
var ErrInvalidPeriod = errors.New("período inválido")

const topListLimit = 5

// Data is the dashboard payload: corpus totals plus the distributions the
// admin screens chart.
type Data struct {
	TotalPrompts     int64           `json:"totalPrompts"`
	ApprovedPrompts  int64           `json:"promptsAprovados"`
	PendingPrompts   int64           `json:"promptsPendentes"`
	RejectedPrompts  int64           `json:"promptsRejeitados"`
	TotalLikes       int64           `json:"totalCurtidas"`
	TotalFavorites   int64           `json:"totalFavoritos"`
	TotalCategories  int64           `json:"totalCategorias"`
	ActiveUsers      int64           `json:"usuariosAtivos"`
	ByCategory       []CategoryShare `json:"distribuicaoPorCategoria"`
	CreatedPerDay    []DayPoint      `json:"promptsPorDia"`
	TopCreators      []CreatorEntry  `json:"topCriadores"`
	MostLikedPrompts []LikedEntry    `json:"promptsMaisCurtidos"`
}

// CategoryShare is one category's slice of the approved corpus.
type CategoryShare struct {
	CategoryID string  `json:"categoriaId"`
	Name       string  `json:"nome"`
	Count      int64   `json:"quantidade"`
	Percent    float64 `json:"percentual"`
}

// DayPoint is one day of creation volume.
type DayPoint struct {
	Day   string `json:"dia"`
	Count int64  `json:"quantidade"`
}

// CreatorEntry ranks one author.
type CreatorEntry struct {
	UserID uint   `json:"usuarioId"`
	Name   string `json:"nome"`
	Count  int64  `json:"quantidade"`
}

// LikedEntry ranks one prompt by likes.
type LikedEntry struct {
	PromptID string `json:"promptId"`
	Title    string `json:"titulo"`
	Likes    int64  `json:"curtidas"`
}

// Service assembles the dashboard from live aggregate queries.
type Service struct {
	stats  *repository.StatsRepository
	logger *zap.SugaredLogger
}

// NewService creates a dashboard Service.
func NewService(stats *repository.StatsRepository, logger *zap.SugaredLogger) *Service {
	return &Service{stats: stats, logger: logger.With("component", "dashboard_service")}
}

// Overview returns the all-time dashboard.
func (s *Service) Overview(ctx context.Context) (*Data, error) {
	return s.assemble(ctx, nil, nil)
}

// Period returns the dashboard narrowed to [from, to). Both bounds are
// required and from must precede to.
func (s *Service) Period(ctx context.Context, from, to time.Time) (*Data, error) {
	if from.IsZero() || to.IsZero() || !from.Before(to) {
		return nil, ErrInvalidPeriod
	}
	return s.assemble(ctx, &from, &to)
}

func (s *Service) assemble(ctx context.Context, from, to *time.Time) (*Data, error) {
	log := s.logger.With("op", "assemble")

	statuses, err := s.stats.CountByStatus(ctx, from, to)
	if err != nil {
		log.Errorw("status counts failed", "error", err)
		return nil, err
	}
	likes, err := s.stats.CountLikes(ctx, from, to)
	if err != nil {
		log.Errorw("like count failed", "error", err)
		return nil, err
	}
	favorites, err := s.stats.CountFavorites(ctx, from, to)
	if err != nil {
		log.Errorw("favorite count failed", "error", err)
		return nil, err
	}
	categories, err := s.stats.CountCategories(ctx)
	if err != nil {
		log.Errorw("category count failed", "error", err)
		return nil, err
	}
	activeUsers, err := s.stats.CountActiveUsers(ctx)
	if err != nil {
		log.Errorw("active user count failed", "error", err)
		return nil, err
	}
	distribution, err := s.stats.CategoryDistribution(ctx, from, to)
	if err != nil {
		log.Errorw("category distribution failed", "error", err)
		return nil, err
	}
	series, err := s.stats.CreatedPerDay(ctx, from, to)
	if err != nil {
		log.Errorw("creation series failed", "error", err)
		return nil, err
	}
	creators, err := s.stats.TopCreators(ctx, topListLimit, from, to)
	if err != nil {
		log.Errorw("top creators failed", "error", err)
		return nil, err
	}
	topPrompts, err := s.stats.TopPrompts(ctx, topListLimit, from, to)
	if err != nil {
		log.Errorw("top prompts failed", "error", err)
		return nil, err
	}

	data := &Data{
		TotalPrompts:     statuses.Total,
		ApprovedPrompts:  statuses.Approved,
		PendingPrompts:   statuses.Pending,
		RejectedPrompts:  statuses.Rejected,
		TotalLikes:       likes,
		TotalFavorites:   favorites,
		TotalCategories:  categories,
		ActiveUsers:      activeUsers,
		ByCategory:       shareOf(distribution),
		CreatedPerDay:    make([]DayPoint, 0, len(series)),
		TopCreators:      make([]CreatorEntry, 0, len(creators)),
		MostLikedPrompts: make([]LikedEntry, 0, len(topPrompts)),
	}
	for _, point := range series {
		data.CreatedPerDay = append(data.CreatedPerDay, DayPoint{Day: point.Day, Count: point.Count})
	}
	for _, creator := range creators {
		data.TopCreators = append(data.TopCreators, CreatorEntry{
			UserID: creator.UserID,
			Name:   creator.Name,
			Count:  creator.Count,
		})
	}
	for _, entry := range topPrompts {
		data.MostLikedPrompts = append(data.MostLikedPrompts, LikedEntry{
			PromptID: entry.PromptID,
			Title:    entry.Title,
			Likes:    entry.Count,
		})
	}
	return data, nil
}

// shareOf converts raw category counts into percentage slices, rounded to
// one decimal place.
func shareOf(rows []repository.CategorySlice) []CategoryShare {
	var total int64
	for _, row := range rows {
		total += row.Count
	}
	out := make([]CategoryShare, 0, len(rows))
	for _, row := range rows {
		var percent float64
		if total > 0 {
			percent = math.Round(float64(row.Count)/float64(total)*1000) / 10
		}
		out = append(out, CategoryShare{
			CategoryID: row.CategoryID,
			Name:       row.Name,
			Count:      row.Count,
			Percent:    percent,
		})
	}
	return out
}
