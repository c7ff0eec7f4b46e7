//go:build integration

package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"storyframe-server/internal/database"
	"storyframe-server/internal/models"
	"storyframe-server/internal/repository"

	"github.com/docker/docker/client"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

type RepositoryIntegrationSuite struct {
	suite.Suite
	ctx         context.Context
	pgContainer *postgres.PostgresContainer
	rdContainer *tcredis.RedisContainer
	pool        *pgxpool.Pool
	redisClient *redis.Client
	logger      *zap.Logger

	tx         *database.TxManager
	narratives repository.NarrativeRepository
	chapters   repository.ChapterRepository
	frames     repository.FrameRepository
	logs       repository.GenerationLogRepository
	lock       repository.GenerationLock
}

func (s *RepositoryIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()
	s.logger = zap.NewNop()
	var err error

	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("storyframe_test"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
	)
	require.NoError(s.T(), err, "Failed to start postgres container")

	dsn, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err)

	s.pool, err = database.Connect(s.ctx, database.PoolConfig{DSN: dsn, MaxConns: 5, MaxRetries: 5, RetryDelay: time.Second}, s.logger)
	require.NoError(s.T(), err, "Failed to connect to test postgres")
	require.NoError(s.T(), database.NewMigrator(s.pool, s.logger).Up(s.ctx), "Failed to run migrations")

	s.rdContainer, err = tcredis.Run(s.ctx,
		"docker.io/redis:7-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("* Ready to accept connections").
				WithOccurrence(1).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(s.T(), err, "Failed to start redis container")

	host, err := s.rdContainer.Host(s.ctx)
	require.NoError(s.T(), err)
	port, err := s.rdContainer.MappedPort(s.ctx, "6379/tcp")
	require.NoError(s.T(), err)
	s.redisClient = redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	require.NoError(s.T(), s.redisClient.Ping(s.ctx).Err())

	s.tx = database.NewTxManager(s.pool)
	s.narratives = repository.NewPgNarrativeRepository(s.logger)
	s.chapters = repository.NewPgChapterRepository(s.logger)
	s.frames = repository.NewPgFrameRepository(s.logger)
	s.logs = repository.NewPgGenerationLogRepository(s.logger)
	s.lock = repository.NewRedisGenerationLock(s.redisClient, time.Minute, s.logger)
}

func (s *RepositoryIntegrationSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.redisClient != nil {
		_ = s.redisClient.Close()
	}
	if s.pgContainer != nil {
		if err := s.pgContainer.Terminate(s.ctx); err != nil {
			s.T().Logf("Failed to terminate postgres container: %v", err)
		}
	}
	if s.rdContainer != nil {
		if err := s.rdContainer.Terminate(s.ctx); err != nil {
			s.T().Logf("Failed to terminate redis container: %v", err)
		}
	}
}

func (s *RepositoryIntegrationSuite) SetupTest() {
	require.NoError(s.T(), s.redisClient.FlushDB(s.ctx).Err())
	_, err := s.pool.Exec(s.ctx, "TRUNCATE TABLE generation_logs, frames, chapters, narratives CASCADE")
	require.NoError(s.T(), err)
}

// createStory создает историю с одной главой и count кадрами в одной транзакции.
func (s *RepositoryIntegrationSuite) createStory(userID uuid.UUID, count int) (*models.Narrative, *models.Chapter, []models.Frame) {
	narrative := &models.Narrative{
		UserID:      userID,
		Title:       "The Garden",
		Description: "A robot finds a garden",
		GeneratedBy: models.GeneratedByAI,
		GenerationMetadata: &models.GenerationMetadata{
			Framework:   "Three-Act Structure",
			StoryLength: "Short",
			BeatCount:   count,
			GeneratedAt: time.Now().UTC(),
		},
	}
	chapter := &models.Chapter{Title: "Chapter 1"}
	frames := make([]models.Frame, count)

	err := s.tx.ExecuteInTransaction(s.ctx, func(tx pgx.Tx) error {
		if err := s.narratives.Create(s.ctx, tx, narrative); err != nil {
			return err
		}
		chapter.NarrativeID = narrative.ID
		if err := s.chapters.Create(s.ctx, tx, chapter); err != nil {
			return err
		}
		for i := range frames {
			frames[i] = models.Frame{
				ChapterID:        chapter.ID,
				OrderIndex:       i,
				NarrativeContent: fmt.Sprintf("beat %d", i+1),
				BeatTitle:        fmt.Sprintf("Beat %d", i+1),
				VisualPrompt:     fmt.Sprintf("prompt %d", i+1),
				MediaType:        models.MediaTypeImage,
			}
		}
		return s.frames.CreateBatch(s.ctx, tx, frames)
	})
	require.NoError(s.T(), err)
	return narrative, chapter, frames
}

func (s *RepositoryIntegrationSuite) TestCreateAndReadStory() {
	t := s.T()
	userID := uuid.New()
	narrative, chapter, frames := s.createStory(userID, 3)

	got, err := s.narratives.GetByID(s.ctx, s.pool, narrative.ID)
	require.NoError(t, err)
	require.Equal(t, "The Garden", got.Title)
	require.Equal(t, models.NarrativeStatusDraft, got.Status)
	require.NotNil(t, got.GenerationMetadata)
	require.Equal(t, 3, got.GenerationMetadata.BeatCount)

	listed, err := s.frames.ListByChapter(s.ctx, s.pool, chapter.ID)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	for i, f := range listed {
		require.Equal(t, i, f.OrderIndex)
		require.Empty(t, f.AIPromptHistory)
	}

	fc, err := s.frames.GetWithContext(s.ctx, s.pool, frames[1].ID)
	require.NoError(t, err)
	require.Equal(t, chapter.ID, fc.Chapter.ID)
	require.Equal(t, userID, fc.Narrative.UserID)
	require.Equal(t, "beat 2", fc.Frame.NarrativeContent)
}

func (s *RepositoryIntegrationSuite) TestFailedTransactionLeavesNothing() {
	t := s.T()
	userID := uuid.New()
	err := s.tx.ExecuteInTransaction(s.ctx, func(tx pgx.Tx) error {
		n := &models.Narrative{UserID: userID, Title: "Orphan"}
		if err := s.narratives.Create(s.ctx, tx, n); err != nil {
			return err
		}
		c := &models.Chapter{NarrativeID: n.ID, Title: "Chapter 1"}
		if err := s.chapters.Create(s.ctx, tx, c); err != nil {
			return err
		}
		// Дублирующийся order_index нарушает уникальность.
		return s.frames.CreateBatch(s.ctx, tx, []models.Frame{
			{ChapterID: c.ID, OrderIndex: 0, MediaType: models.MediaTypeImage},
			{ChapterID: c.ID, OrderIndex: 0, MediaType: models.MediaTypeImage},
		})
	})
	require.Error(t, err)

	var count int
	require.NoError(t, s.pool.QueryRow(s.ctx, "SELECT COUNT(*) FROM narratives WHERE user_id = $1", userID).Scan(&count))
	require.Zero(t, count)
}

func (s *RepositoryIntegrationSuite) TestUpdateRegeneratedAppendsHistory() {
	t := s.T()
	_, _, frames := s.createStory(uuid.New(), 2)
	newText := "Y"

	entry := models.PromptHistoryEntry{
		Timestamp:     time.Now().UTC(),
		Prompt:        "new prompt",
		Modifications: &models.BeatModifications{Narrative: &newText},
	}
	require.NoError(t, s.frames.UpdateRegenerated(s.ctx, s.pool, frames[0].ID, "new prompt", newText, entry))

	fc, err := s.frames.GetWithContext(s.ctx, s.pool, frames[0].ID)
	require.NoError(t, err)
	require.Equal(t, "Y", fc.Frame.NarrativeContent)
	require.Equal(t, "new prompt", fc.Frame.VisualPrompt)
	require.Len(t, fc.Frame.AIPromptHistory, 1)
	require.Equal(t, "new prompt", fc.Frame.AIPromptHistory[0].Prompt)

	err = s.frames.UpdateRegenerated(s.ctx, s.pool, uuid.New(), "p", "n", entry)
	require.ErrorIs(t, err, models.ErrNotFound)
}

func (s *RepositoryIntegrationSuite) TestGetMissingReturnsNotFound() {
	_, err := s.narratives.GetByID(s.ctx, s.pool, uuid.New())
	require.ErrorIs(s.T(), err, models.ErrNotFound)

	_, err = s.frames.GetWithContext(s.ctx, s.pool, uuid.New())
	require.ErrorIs(s.T(), err, models.ErrNotFound)
}

func (s *RepositoryIntegrationSuite) TestGenerationLogCountSince() {
	t := s.T()
	userID := uuid.New()
	for i := 0; i < 3; i++ {
		require.NoError(t, s.logs.Insert(s.ctx, s.pool, &models.GenerationLogEntry{
			UserID:        userID,
			OperationType: models.OperationStoryStructure,
			ModelUsed:     "test-model",
			PromptPreview: "theme",
		}))
	}
	require.NoError(t, s.logs.Insert(s.ctx, s.pool, &models.GenerationLogEntry{
		UserID:        userID,
		OperationType: models.OperationVisualPrompts,
		ModelUsed:     "test-model",
	}))

	count, err := s.logs.CountSince(s.ctx, s.pool, userID, models.OperationStoryStructure, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	require.Equal(t, 3, count)

	count, err = s.logs.CountSince(s.ctx, s.pool, userID, models.OperationStoryStructure, time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.Zero(t, count)
}

func (s *RepositoryIntegrationSuite) TestGenerationLock() {
	t := s.T()
	userID := uuid.New()

	token, err := s.lock.Acquire(s.ctx, userID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	_, err = s.lock.Acquire(s.ctx, userID)
	require.ErrorIs(t, err, models.ErrUserHasActiveGeneration)

	// Чужой токен не снимает блокировку.
	require.NoError(t, s.lock.Release(s.ctx, userID, "foreign"))
	_, err = s.lock.Acquire(s.ctx, userID)
	require.ErrorIs(t, err, models.ErrUserHasActiveGeneration)

	require.NoError(t, s.lock.Release(s.ctx, userID, token))
	_, err = s.lock.Acquire(s.ctx, userID)
	require.NoError(t, err)
}

func (s *RepositoryIntegrationSuite) requireOrder(chapterID uuid.UUID, want []uuid.UUID) {
	t := s.T()
	listed, err := s.frames.ListByChapter(s.ctx, s.pool, chapterID)
	require.NoError(t, err)
	require.Len(t, listed, len(want))
	for i, f := range listed {
		require.Equal(t, i, f.OrderIndex)
		require.Equal(t, want[i], f.ID)
	}
}

func (s *RepositoryIntegrationSuite) TestReorderKeepsOrderContiguous() {
	t := s.T()
	_, chapter, frames := s.createStory(uuid.New(), 4)

	reversed := []uuid.UUID{frames[3].ID, frames[2].ID, frames[1].ID, frames[0].ID}
	err := s.tx.ExecuteInTransaction(s.ctx, func(tx pgx.Tx) error {
		return s.frames.Reorder(s.ctx, tx, chapter.ID, reversed)
	})
	require.NoError(t, err)
	s.requireOrder(chapter.ID, reversed)

	// Обмен соседних кадров тоже проходит одним UPDATE.
	swapped := []uuid.UUID{frames[3].ID, frames[1].ID, frames[2].ID, frames[0].ID}
	require.NoError(t, s.frames.Reorder(s.ctx, s.pool, chapter.ID, swapped))
	s.requireOrder(chapter.ID, swapped)
}

func (s *RepositoryIntegrationSuite) TestReorderRejectsPartialOrForeignList() {
	t := s.T()
	_, chapter, frames := s.createStory(uuid.New(), 3)
	_, _, foreign := s.createStory(uuid.New(), 1)
	original := []uuid.UUID{frames[0].ID, frames[1].ID, frames[2].ID}

	// Последний кадр на позицию 0 сталкивается с первым.
	err := s.frames.Reorder(s.ctx, s.pool, chapter.ID, []uuid.UUID{frames[2].ID})
	require.Error(t, err)
	s.requireOrder(chapter.ID, original)

	err = s.frames.Reorder(s.ctx, s.pool, chapter.ID, []uuid.UUID{frames[2].ID, frames[1].ID, foreign[0].ID})
	require.Error(t, err)
	s.requireOrder(chapter.ID, original)
}

func (s *RepositoryIntegrationSuite) TestInsertAfterShiftsLaterFrames() {
	t := s.T()
	_, chapter, frames := s.createStory(uuid.New(), 3)

	middle := &models.Frame{ChapterID: chapter.ID, NarrativeContent: "interlude"}
	err := s.tx.ExecuteInTransaction(s.ctx, func(tx pgx.Tx) error {
		return s.frames.InsertAfter(s.ctx, tx, middle, 0)
	})
	require.NoError(t, err)
	require.Equal(t, 1, middle.OrderIndex)
	s.requireOrder(chapter.ID, []uuid.UUID{frames[0].ID, middle.ID, frames[1].ID, frames[2].ID})

	first := &models.Frame{ChapterID: chapter.ID, NarrativeContent: "prologue"}
	require.NoError(t, s.frames.InsertAfter(s.ctx, s.pool, first, -1))
	require.Equal(t, 0, first.OrderIndex)

	last := &models.Frame{ChapterID: chapter.ID, NarrativeContent: "epilogue"}
	require.NoError(t, s.frames.InsertAfter(s.ctx, s.pool, last, 4))
	s.requireOrder(chapter.ID, []uuid.UUID{first.ID, frames[0].ID, middle.ID, frames[1].ID, frames[2].ID, last.ID})

	fc, err := s.frames.GetWithContext(s.ctx, s.pool, middle.ID)
	require.NoError(t, err)
	require.Equal(t, "interlude", fc.Frame.NarrativeContent)
	require.Equal(t, models.MediaTypeImage, fc.Frame.MediaType)
}

func (s *RepositoryIntegrationSuite) TestChapterGetForUpdate() {
	t := s.T()
	narrative, chapter, _ := s.createStory(uuid.New(), 1)

	err := s.tx.ExecuteInTransaction(s.ctx, func(tx pgx.Tx) error {
		got, err := s.chapters.GetForUpdate(s.ctx, tx, chapter.ID)
		if err != nil {
			return err
		}
		require.Equal(t, narrative.ID, got.NarrativeID)
		_, err = s.chapters.GetForUpdate(s.ctx, tx, uuid.New())
		return err
	})
	require.ErrorIs(t, err, models.ErrNotFound)
}

func (s *RepositoryIntegrationSuite) TestUpdateFrameContent() {
	t := s.T()
	_, _, frames := s.createStory(uuid.New(), 1)

	require.NoError(t, s.frames.UpdateContent(s.ctx, s.pool, frames[0].ID, "rewritten"))
	fc, err := s.frames.GetWithContext(s.ctx, s.pool, frames[0].ID)
	require.NoError(t, err)
	require.Equal(t, "rewritten", fc.Frame.NarrativeContent)

	require.ErrorIs(t, s.frames.UpdateContent(s.ctx, s.pool, uuid.New(), "x"), models.ErrNotFound)
}

func (s *RepositoryIntegrationSuite) TestUpdateStatusAndVisibility() {
	t := s.T()
	narrative, _, _ := s.createStory(uuid.New(), 1)

	require.NoError(t, s.narratives.UpdateStatus(s.ctx, s.pool, narrative.ID, models.NarrativeStatusPublished))
	require.NoError(t, s.narratives.UpdateVisibility(s.ctx, s.pool, narrative.ID, true))

	got, err := s.narratives.GetByID(s.ctx, s.pool, narrative.ID)
	require.NoError(t, err)
	require.Equal(t, models.NarrativeStatusPublished, got.Status)
	require.True(t, got.IsPublic)

	require.ErrorIs(t, s.narratives.UpdateStatus(s.ctx, s.pool, uuid.New(), models.NarrativeStatusArchived), models.ErrNotFound)
	require.ErrorIs(t, s.narratives.UpdateVisibility(s.ctx, s.pool, uuid.New(), false), models.ErrNotFound)
}

func TestRepositoryIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	cli, err := client.NewClientWithOpts(client.FromEnv)
	if err != nil {
		t.Skipf("Docker client init error: %v", err)
	}
	if _, err := cli.Ping(context.Background()); err != nil {
		t.Skipf("Docker daemon is not accessible: %v", err)
	}
	_ = cli.Close()

	suite.Run(t, new(RepositoryIntegrationSuite))
}
