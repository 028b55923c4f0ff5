package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalhub-dev/capitalhub/internal/cli/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// recordedRequest captures what the fake API saw
type recordedRequest struct {
	Method        string
	Path          string
	RawQuery      string
	Authorization string
	ContentType   string
	RequestID     string
	Body          string
}

// fakeAPI is a gin backend that records every request
type fakeAPI struct {
	*httptest.Server
	mu       sync.Mutex
	requests []recordedRequest
}

func newFakeAPI(t *testing.T, register func(r *gin.Engine)) *fakeAPI {
	t.Helper()

	api := &fakeAPI{}
	r := gin.New()
	r.Use(func(c *gin.Context) {
		body, _ := io.ReadAll(c.Request.Body)
		c.Request.Body = io.NopCloser(strings.NewReader(string(body)))
		api.mu.Lock()
		api.requests = append(api.requests, recordedRequest{
			Method:        c.Request.Method,
			Path:          c.Request.URL.Path,
			RawQuery:      c.Request.URL.RawQuery,
			Authorization: c.GetHeader("Authorization"),
			ContentType:   c.GetHeader("Content-Type"),
			RequestID:     c.GetHeader("X-Request-ID"),
			Body:          string(body),
		})
		api.mu.Unlock()
		c.Next()
	})
	register(r)

	api.Server = httptest.NewServer(r)
	t.Cleanup(api.Close)
	return api
}

func (f *fakeAPI) last(t *testing.T) recordedRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests, "no request reached the fake API")
	return f.requests[len(f.requests)-1]
}

func staticToken(token string) session.CredentialSource {
	return session.CredentialFunc(func() (string, bool) {
		return token, token != ""
	})
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/rep/jobs", "/api/rep/jobs"},
		{"rep/jobs", "/api/rep/jobs"},
		{"/api/rep/jobs", "/api/rep/jobs"},
		{"/api", "/api"},
		{"/api?x=1", "/api?x=1"},
		{"/apiary", "/api/apiary"},
		{"api/rep/jobs", "/api/rep/jobs"},
		{"api", "/api"},
		{"api?x=1", "/api?x=1"},
		{"apiary", "/api/apiary"},
		{"/auth/validate-reset-token?token=abc", "/api/auth/validate-reset-token?token=abc"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := NormalizePath(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, NormalizePath(got), "normalizing twice must not add a second prefix")
			assert.False(t, strings.HasPrefix(got, "/api/api"))
		})
	}
}

func TestClient_URL(t *testing.T) {
	assert.Equal(t, "/api/rep/jobs", New("").URL("/rep/jobs"))
	assert.Equal(t, "https://api.capitalhub.io/api/rep/jobs", New("https://api.capitalhub.io/").URL("rep/jobs"))
}

func TestClient_AuthHeaderGating(t *testing.T) {
	api := newFakeAPI(t, func(r *gin.Engine) {
		r.GET("/api/rep/jobs", func(c *gin.Context) { c.JSON(http.StatusOK, []JobOffer{}) })
		r.POST("/api/auth/login", func(c *gin.Context) {
			c.JSON(http.StatusOK, LoginResponse{AccessToken: "t", Email: "a@b.com", Role: "REP"})
		})
	})

	c := New(api.URL, WithCredentials(staticToken("secret-token")))
	ctx := context.Background()

	_, err := c.Login(ctx, "a@b.com", "secret")
	require.NoError(t, err)
	assert.Empty(t, api.last(t).Authorization, "unauthenticated calls never carry the credential")

	_, err = c.ListJobOffers(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret-token", api.last(t).Authorization)
}

func TestClient_MissingCredentialStillSends(t *testing.T) {
	api := newFakeAPI(t, func(r *gin.Engine) {
		r.GET("/api/rep/jobs", func(c *gin.Context) {
			c.JSON(http.StatusForbidden, gin.H{"message": "Access Denied"})
		})
	})

	c := New(api.URL, WithCredentials(staticToken("")))
	_, err := c.ListJobOffers(context.Background())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Equal(t, "Access Denied", apiErr.Message)
	assert.Empty(t, api.last(t).Authorization)
}

func TestClient_Headers(t *testing.T) {
	api := newFakeAPI(t, func(r *gin.Engine) {
		r.POST("/api/rep/jobs/:id/apply", func(c *gin.Context) {
			c.JSON(http.StatusCreated, Application{ID: 9, Status: StatusApplied})
		})
	})

	c := New(api.URL, WithCredentials(staticToken("tok")))
	app, err := c.ApplyToJob(context.Background(), 42, "hello")
	require.NoError(t, err)
	assert.Equal(t, int64(9), app.ID)

	req := api.last(t)
	assert.Equal(t, "/api/rep/jobs/42/apply", req.Path)
	assert.Equal(t, "application/json", req.ContentType)
	assert.JSONEq(t, `{"repMessage":"hello"}`, req.Body)
	_, err = ulid.Parse(req.RequestID)
	assert.NoError(t, err, "every request carries a ULID request id")
}

func TestClient_NoContent(t *testing.T) {
	api := newFakeAPI(t, func(r *gin.Engine) {
		r.PATCH("/api/company/jobs/:id/status", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	})

	c := New(api.URL, WithCredentials(staticToken("tok")))
	require.NoError(t, c.UpdateJobStatus(context.Background(), 3, JobPaused))

	req := api.last(t)
	assert.Equal(t, http.MethodPatch, req.Method)
	assert.Equal(t, "status=PAUSED", req.RawQuery)
}

func TestClient_NoContentLeavesOutUntouched(t *testing.T) {
	api := newFakeAPI(t, func(r *gin.Engine) {
		r.GET("/api/rep/me", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	})

	out := RepProfile{Email: "before@x.io"}
	err := New(api.URL).Get(context.Background(), "/rep/me", true, &out)
	require.NoError(t, err)
	assert.Equal(t, "before@x.io", out.Email)
}

func TestClient_ErrorMessages(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"message field", http.StatusBadRequest, `{"message":"Offer is closed"}`, "Offer is closed"},
		{"error field", http.StatusConflict, `{"error":"already applied"}`, "already applied"},
		{"not json", http.StatusInternalServerError, `<html>oops</html>`, DefaultErrorMessage},
		{"empty body", http.StatusBadGateway, ``, DefaultErrorMessage},
		{"json without message", http.StatusNotFound, `{"path":"/x"}`, DefaultErrorMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI(t, func(r *gin.Engine) {
				r.GET("/api/rep/applications", func(c *gin.Context) {
					c.Data(tt.status, "application/json", []byte(tt.body))
				})
			})

			_, err := New(api.URL).ListRepApplications(context.Background())

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.message, apiErr.Message)
			assert.Equal(t, tt.status, StatusOf(err))
		})
	}
}

func TestClient_NetworkFailure(t *testing.T) {
	api := newFakeAPI(t, func(r *gin.Engine) {})
	url := api.URL
	api.Close()

	err := New(url).Get(context.Background(), PathCourses, true, nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 0, apiErr.Status)
	assert.Equal(t, NetworkErrorMessage, apiErr.Message)
	assert.Equal(t, NetworkErrorMessage, MessageOf(err))
}

func TestClient_CancelledContext(t *testing.T) {
	api := newFakeAPI(t, func(r *gin.Engine) {
		r.GET("/api/rep/jobs", func(c *gin.Context) { c.JSON(http.StatusOK, []JobOffer{}) })
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(api.URL).ListJobOffers(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestClient_PolicyOnAuthDenied(t *testing.T) {
	api := newFakeAPI(t, func(r *gin.Engine) {
		r.GET("/api/company/dashboard/stats", func(c *gin.Context) {
			c.JSON(http.StatusForbidden, gin.H{"message": "forbidden"})
		})
		r.GET("/api/company/jobs", func(c *gin.Context) {
			c.JSON(http.StatusNotFound, gin.H{"message": "missing"})
		})
	})

	var denied []int
	policy := PolicyFunc(func(_ context.Context, req Request, err *APIError) {
		denied = append(denied, err.Status)
	})

	c := New(api.URL, WithPolicy(policy))
	var stats CompanyDashboardStats
	err := c.Get(context.Background(), PathCompanyDashboardStats, true, &stats)
	require.Error(t, err)
	_, err = c.ListCompanyJobs(context.Background())
	require.Error(t, err)

	assert.Equal(t, []int{http.StatusForbidden}, denied)
}

func TestClient_Metrics(t *testing.T) {
	api := newFakeAPI(t, func(r *gin.Engine) {
		r.GET("/api/training/courses", func(c *gin.Context) { c.JSON(http.StatusOK, []Course{}) })
		r.POST("/api/training/lessons/:id/complete", func(c *gin.Context) {
			c.JSON(http.StatusNotFound, gin.H{"message": "no lesson"})
		})
	})

	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	c := New(api.URL, WithMetrics(metrics))

	var courses []Course
	require.NoError(t, c.Get(context.Background(), PathCourses, true, &courses))
	require.Error(t, c.CompleteLesson(context.Background(), 7))

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.requests.WithLabelValues(http.MethodGet, "2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.requests.WithLabelValues(http.MethodPost, "4xx")))
}

func TestClient_Upload(t *testing.T) {
	api := newFakeAPI(t, func(r *gin.Engine) {
		r.POST("/api/media/upload", func(c *gin.Context) {
			file, err := c.FormFile("file")
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"message": "file missing"})
				return
			}
			c.JSON(http.StatusOK, UploadResponse{URL: "https://cdn.capitalhub.io/" + c.PostForm("folder") + "/" + file.Filename})
		})
	})

	c := New(api.URL, WithCredentials(staticToken("tok")))
	resp, err := c.Upload(context.Background(), UploadRequest{
		Filename: "avatar.png",
		Content:  strings.NewReader("png-bytes"),
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.capitalhub.io/general/avatar.png", resp.URL)

	req := api.last(t)
	assert.Equal(t, "Bearer tok", req.Authorization)
	assert.True(t, strings.HasPrefix(req.ContentType, "multipart/form-data"))
}

func TestClient_UploadError(t *testing.T) {
	api := newFakeAPI(t, func(r *gin.Engine) {
		r.POST("/api/media/upload", func(c *gin.Context) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"message": "file too large"})
		})
	})

	_, err := New(api.URL).Upload(context.Background(), UploadRequest{
		Filename: "video.mp4",
		Content:  strings.NewReader("x"),
		Folder:   "videos",
	})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusRequestEntityTooLarge, apiErr.Status)
	assert.Equal(t, "file too large", apiErr.Message)
}

func TestClient_ValidateResetTokenEscapesToken(t *testing.T) {
	api := newFakeAPI(t, func(r *gin.Engine) {
		r.GET("/api/auth/validate-reset-token", func(c *gin.Context) {
			c.JSON(http.StatusOK, MessageResponse{Message: c.Query("token"), Success: true})
		})
	})

	resp, err := New(api.URL).ValidateResetToken(context.Background(), "a+b/c&d")
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "a+b/c&d", resp.Message)
}

func TestClient_UpdateApplicationStatusQuery(t *testing.T) {
	api := newFakeAPI(t, func(r *gin.Engine) {
		r.PATCH("/api/company/applications/:id/status", func(c *gin.Context) {
			c.JSON(http.StatusOK, Application{ID: 5, Status: ApplicationStatus(c.Query("status")), InterviewURL: c.Query("interviewUrl")})
		})
	})

	app, err := New(api.URL).UpdateApplicationStatus(context.Background(), 5, StatusUpdate{
		Status:       StatusInterview,
		InterviewURL: "https://zoom.us/j/1",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusInterview, app.Status)
	assert.Equal(t, "https://zoom.us/j/1", app.InterviewURL)
}

func TestParseStatuses(t *testing.T) {
	st, err := ParseApplicationStatus("offer_sent")
	require.NoError(t, err)
	assert.Equal(t, StatusOfferSent, st)
	assert.False(t, st.Final())
	assert.True(t, StatusHired.Final())

	_, err = ParseApplicationStatus("PENDING")
	assert.Error(t, err)

	js, err := ParseJobStatus("closed")
	require.NoError(t, err)
	assert.Equal(t, JobClosed, js)
	_, err = ParseJobStatus("DRAFT")
	assert.Error(t, err)
}
