package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"sportsquiz-service/internal/app"
	"sportsquiz-service/internal/domain"
	pgstore "sportsquiz-service/internal/infra/postgres"
	pgmigrations "sportsquiz-service/internal/infra/postgres/migrations"
	infraredis "sportsquiz-service/internal/infra/redis"
	"sportsquiz-service/internal/logger"
)

type cannedGenerator struct {
	text string
}

func (g *cannedGenerator) GenerateText(context.Context, string) (string, error) {
	return g.text, nil
}

const generatedBatch = `[
  {"question": "Brazil has won five FIFA World Cups.", "options": ["True", "False"], "answer": "True"},
  {"question": "The Olympics are held every two years.", "options": ["True", "False"], "answer": "False"},
  {"question": "A marathon is 42.195 km long.", "options": ["True", "False"], "answer": "True"}
]`

func TestGenerateAndGradeEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	applyMigrations(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	quizzes := pgstore.NewQuizStore(pool)
	attempts := pgstore.NewAttemptStore(pool)
	keys := infraredis.NewAnswerKeyCache(redisClient, app.NewStoreAnswerKeys(quizzes), 5*time.Minute)
	service := app.NewQuizService(&cannedGenerator{text: generatedBatch}, quizzes, attempts, keys, logger.NewNop())

	quiz, err := service.GenerateQuiz(ctx, app.GenerateQuizRequest{
		Category:          "Football",
		NumberOfQuestions: 3,
		QuizType:          domain.TrueFalse,
	}, domain.Requester{UserID: "u1"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if quiz.ID == "" || len(quiz.Questions) != 3 {
		t.Fatalf("unexpected quiz: %+v", quiz)
	}
	if quiz.CreatedAt.IsZero() {
		t.Fatalf("expected server-assigned creation timestamp")
	}

	stored, err := quizzes.GetQuiz(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("reload quiz: %v", err)
	}
	if len(stored.Questions) != 3 || stored.Status != domain.StatusActive {
		t.Fatalf("round trip lost data: %+v", stored)
	}

	answers := []domain.SubmittedAnswer{
		{QuestionID: stored.Questions[0].ID, SelectedOption: stored.Questions[0].Answer},
		{QuestionID: stored.Questions[1].ID, SelectedOption: "True"}, // key says False
		{QuestionID: "ghost", SelectedOption: "True"},
	}
	result, err := service.GradeSubmission(ctx, app.GradeSubmissionRequest{
		QuizID:      quiz.ID,
		UserAnswers: answers,
	}, domain.Requester{UserID: "u2"})
	if err != nil {
		t.Fatalf("grade: %v", err)
	}

	if result.Score.Correct != 1 || result.Score.Incorrect != 2 || result.Score.Total != 3 {
		t.Fatalf("unexpected score: %+v", result.Score)
	}
	if result.ReviewDetails[2].CorrectOption != app.QuestionNotFoundSentinel {
		t.Fatalf("expected sentinel for unknown question, got %q", result.ReviewDetails[2].CorrectOption)
	}

	// Second grading must be served from the redis answer-key cache.
	if got := redisClient.HGetAll(ctx, "quiz:"+quiz.ID+":answers").Val(); len(got) != 3 {
		t.Fatalf("expected cached answer key, got %v", got)
	}
	if _, err := service.GradeSubmission(ctx, app.GradeSubmissionRequest{
		QuizID:      quiz.ID,
		UserAnswers: answers[:1],
	}, domain.Requester{UserID: "u3"}); err != nil {
		t.Fatalf("second grade: %v", err)
	}
}

func TestSoftDeleteLifecycleEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()

	applyMigrations(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	quizzes := pgstore.NewQuizStore(pool)
	attempts := pgstore.NewAttemptStore(pool)
	service := app.NewQuizService(&cannedGenerator{text: generatedBatch}, quizzes, attempts, app.NewStoreAnswerKeys(quizzes), logger.NewNop())

	admin := domain.Requester{UserID: "admin", Admin: true}
	quiz, err := service.GenerateQuiz(ctx, app.GenerateQuizRequest{
		Category:          "Football",
		NumberOfQuestions: 3,
		QuizType:          domain.TrueFalse,
		Visibility:        domain.VisibilityGlobal,
	}, admin)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if quiz.Visibility != domain.VisibilityGlobal {
		t.Fatalf("admin visibility not honored: %s", quiz.Visibility)
	}

	if _, err := service.SetQuizStatus(ctx, quiz.ID, domain.StatusDeleted, admin); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	if _, err := service.GetQuiz(ctx, quiz.ID, domain.Requester{UserID: "u1"}); !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("deleted quiz must look absent to non-admins, got %v", err)
	}

	// Grading still works against a soft-deleted quiz.
	result, err := service.GradeSubmission(ctx, app.GradeSubmissionRequest{
		QuizID:      quiz.ID,
		UserAnswers: []domain.SubmittedAnswer{{QuestionID: quiz.Questions[0].ID, SelectedOption: quiz.Questions[0].Answer}},
	}, domain.Requester{UserID: "u1"})
	if err != nil {
		t.Fatalf("grade after delete: %v", err)
	}
	if result.Score.Correct != 1 {
		t.Fatalf("unexpected score: %+v", result.Score)
	}
}

func applyMigrations(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
