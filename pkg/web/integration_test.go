//go:build integration

package web_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/hardware"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/models"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/persistence"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/persistence/postgresql"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/services"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/templates"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/web"
)

func setupIntegrationDB(t *testing.T) (string, func()) {
	t.Helper()

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_DB":       "cinemaos_web_test",
				"POSTGRES_USER":     "cinemaos",
				"POSTGRES_PASSWORD": "cinemaos",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		},
		Started: true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	databaseURL := fmt.Sprintf("postgres://cinemaos:cinemaos@%s:%s/cinemaos_web_test?sslmode=disable", host, port.Port())

	cleanup := func() {
		_ = container.Terminate(ctx)
	}

	return databaseURL, cleanup
}

func setupIntegrationApp(t *testing.T, databaseURL string, runner *stubRunner) (*fiber.App, persistence.Persistence) {
	t.Helper()

	p, err := postgresql.NewPersistence(context.Background(), testLogger(), databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, p.Close(context.Background()))
	})

	generations := services.NewGenerations(testLogger(), p, &stubBus{}, runner)
	detector := hardware.NewStaticDetector(models.HardwareProfile{AcceleratorMemoryGB: 24, SystemMemoryGB: 64})

	handlers := web.NewAPIHandlers(testLogger(), generations, testCatalog(t), templates.NewStore(), detector, nil)

	app := fiber.New()
	handlers.Register(app)

	return app, p
}

func TestGenerationLifecycle_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	databaseURL, cleanup := setupIntegrationDB(t)
	defer cleanup()

	runner := &stubRunner{result: &models.JobResult{
		Outputs: []models.Artifact{{Name: "frame.png", URL: "https://fal.media/files/frame.png", Kind: "image"}},
	}}
	app, p := setupIntegrationApp(t, databaseURL, runner)

	var jobID string

	t.Run("Queue Generation", func(t *testing.T) {
		resp, err := app.Test(jsonRequest(t, http.MethodPost, "/generations", validRequest()))
		require.NoError(t, err)

		assert.Equal(t, http.StatusAccepted, resp.StatusCode)

		var queued web.QueuedResponse
		require.NoError(t, json.Unmarshal(readBody(t, resp), &queued))
		require.NotEmpty(t, queued.ID)
		assert.Equal(t, models.JobStatusQueued, queued.Status)

		jobID = queued.ID
	})

	t.Run("Get Generation", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/generations/"+jobID, nil))
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var record models.JobRecord
		require.NoError(t, json.Unmarshal(readBody(t, resp), &record))
		assert.Equal(t, jobID, record.ID)
		assert.Equal(t, "image", record.TaskType)
		assert.Equal(t, "z-image-turbo", record.ModelID)
		assert.NotZero(t, record.CreatedAt)
	})

	t.Run("Resume Submitted Generation", func(t *testing.T) {
		ctx := context.Background()

		require.NoError(t, p.Jobs().UpdateStatus(ctx, jobID, models.JobStatusRunning, ""))
		require.NoError(t, p.Jobs().SetTicket(ctx, jobID, "req-42"))

		resp, err := app.Test(jsonRequest(t, http.MethodPost, "/generations/"+jobID+"/resume?timeout=30", nil))
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var sync web.SyncResponse
		require.NoError(t, json.Unmarshal(readBody(t, resp), &sync))
		require.NotNil(t, sync.Result)
		assert.Len(t, sync.Result.Outputs, 1)

		assert.Equal(t, []string{jobID}, runner.resumed)
	})

	t.Run("Resume Completed Generation Conflicts", func(t *testing.T) {
		ctx := context.Background()

		require.NoError(t, p.Jobs().UpdateStatus(ctx, jobID, models.JobStatusCompleted, ""))

		resp, err := app.Test(jsonRequest(t, http.MethodPost, "/generations/"+jobID+"/resume", nil))
		require.NoError(t, err)

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		readBody(t, resp)
	})

	t.Run("List Generations", func(t *testing.T) {
		for range 2 {
			resp, err := app.Test(jsonRequest(t, http.MethodPost, "/generations", validRequest()))
			require.NoError(t, err)
			assert.Equal(t, http.StatusAccepted, resp.StatusCode)
			readBody(t, resp)
		}

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/generations?status=queued", nil))
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var list web.ListGenerationsResponse
		require.NoError(t, json.Unmarshal(readBody(t, resp), &list))
		assert.Len(t, list.Jobs, 2)

		for _, record := range list.Jobs {
			assert.Equal(t, models.JobStatusQueued, record.Status)
		}
	})

	t.Run("Run Synchronously", func(t *testing.T) {
		resp, err := app.Test(jsonRequest(t, http.MethodPost, "/generations?mode=sync", validRequest()))
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var sync web.SyncResponse
		require.NoError(t, json.Unmarshal(readBody(t, resp), &sync))
		assert.NotEmpty(t, sync.ID)
		require.NotNil(t, sync.Result)
		assert.Len(t, sync.Result.Outputs, 1)

		record, err := p.Jobs().GetByID(context.Background(), sync.ID)
		require.NoError(t, err)
		assert.Equal(t, sync.ID, record.ID)
	})

	t.Run("Retention Sweep", func(t *testing.T) {
		deleted, err := p.Jobs().DeleteOlderThan(context.Background(), time.Now().Add(time.Minute))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, deleted, int64(1))
	})
}
