package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/campuslink/backend/internal/assist"
	"github.com/campuslink/backend/internal/models"
	"github.com/campuslink/backend/internal/points"
	"github.com/campuslink/backend/internal/store"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// HandlersTestSuite drives the HTTP surface against a real database. Auth
// is mocked with an X-User-ID header so no tokens are needed.
type HandlersTestSuite struct {
	suite.Suite
	db       *gorm.DB
	store    *store.Store
	router   *gin.Engine
	handlers *Handlers
	author   *models.Profile
	viewer   *models.Profile
}

func (suite *HandlersTestSuite) SetupSuite() {
	host := getEnvOrDefault("DB_HOST", "localhost")
	port := getEnvOrDefault("DB_PORT", "5432")
	user := getEnvOrDefault("DB_USER", "postgres")
	password := getEnvOrDefault("DB_PASSWORD", "")
	dbname := getEnvOrDefault("DB_NAME", "campuslink_test")

	dsn := fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=disable", host, port, user, dbname)
	if password != "" {
		dsn += " password=" + password
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		suite.T().Skipf("Skipping handler tests: database not available (%v)", err)
		return
	}

	err = db.AutoMigrate(
		&models.Profile{}, &models.Follow{},
		&models.Post{}, &models.PostLike{}, &models.PostRepost{},
		&models.PostBookmark{}, &models.PostReaction{}, &models.PostTag{},
		&models.Registration{}, &models.Poll{}, &models.PollOption{},
		&models.PollVote{}, &models.Comment{}, &models.Report{},
	)
	require.NoError(suite.T(), err)

	suite.db = db
	suite.store = store.New(db)

	// Unconfigured assist client: moderation fails open, assist routes 503.
	assistClient := assist.NewClient("", "", "")
	pointsService := points.New(suite.store, nil)
	suite.handlers = NewHandlers(suite.store, assistClient, pointsService)

	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.setupRoutes()
}

func (suite *HandlersTestSuite) setupRoutes() {
	optionalAuth := func(c *gin.Context) {
		if userID := c.GetHeader("X-User-ID"); userID != "" {
			c.Set("user_id", userID)
		}
		c.Next()
	}
	requireAuth := func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "not_authenticated"})
			c.Abort()
			return
		}
		c.Set("user_id", userID)
		c.Next()
	}

	api := suite.router.Group("/api/v1")

	api.GET("/feed", optionalAuth, suite.handlers.GetFeed)
	api.GET("/posts/:id", optionalAuth, suite.handlers.GetPost)
	api.GET("/posts/:id/replies", optionalAuth, suite.handlers.GetPostReplies)
	api.GET("/posts/:id/comments", suite.handlers.GetComments)
	api.GET("/posts/:id/poll", suite.handlers.GetPoll)
	api.GET("/posts/:id/calendar.ics", suite.handlers.GetEventCalendar)
	api.GET("/users/:id", suite.handlers.GetProfile)
	api.GET("/leaderboard", suite.handlers.GetLeaderboard)

	authed := api.Group("", requireAuth)
	authed.POST("/posts", suite.handlers.CreatePost)
	authed.DELETE("/posts/:id", suite.handlers.DeletePost)
	authed.POST("/posts/:id/comments", suite.handlers.CreateComment)
	authed.POST("/posts/:id/like", suite.handlers.ToggleLike)
	authed.POST("/posts/:id/repost", suite.handlers.ToggleRepost)
	authed.POST("/posts/:id/bookmark", suite.handlers.ToggleBookmark)
	authed.POST("/posts/:id/react", suite.handlers.ToggleReaction)
	authed.POST("/posts/:id/vote", suite.handlers.CastVote)
	authed.POST("/posts/:id/register", suite.handlers.Register)
	authed.DELETE("/posts/:id/register", suite.handlers.CancelRegistration)
	authed.POST("/posts/:id/report", suite.handlers.CreateReport)
	authed.GET("/users/me", suite.handlers.GetMe)
	authed.PUT("/users/me", suite.handlers.UpdateMe)
	authed.POST("/users/:id/follow", suite.handlers.Follow)
	authed.DELETE("/users/:id/follow", suite.handlers.Unfollow)
	authed.POST("/assist/translate", suite.handlers.Translate)
}

func (suite *HandlersTestSuite) TearDownSuite() {
	if suite.db == nil {
		return
	}
	sqlDB, _ := suite.db.DB()
	sqlDB.Close()
}

func (suite *HandlersTestSuite) SetupTest() {
	for _, table := range []string{
		"poll_votes", "poll_options", "polls", "registrations",
		"post_reactions", "post_bookmarks", "post_reposts", "post_likes",
		"post_tags", "comments", "reports", "posts", "follows", "profiles",
	} {
		suite.db.Exec("DELETE FROM " + table)
	}

	suite.author = suite.createProfile("author")
	suite.viewer = suite.createProfile("viewer")
}

func (suite *HandlersTestSuite) createProfile(name string) *models.Profile {
	p := &models.Profile{
		Email:    fmt.Sprintf("%s_%d@test.com", name, time.Now().UnixNano()),
		FullName: name,
		Campus:   "North Campus",
		City:     "Istanbul",
	}
	require.NoError(suite.T(), suite.db.Create(p).Error)
	return p
}

// request performs an HTTP request as the given user ("" for anonymous).
func (suite *HandlersTestSuite) request(method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(suite.T(), err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *HandlersTestSuite) decode(w *httptest.ResponseRecorder) map[string]interface{} {
	var out map[string]interface{}
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func (suite *HandlersTestSuite) createPost(userID, content string) string {
	w := suite.request(http.MethodPost, "/api/v1/posts", userID, gin.H{"content": content})
	require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())
	body := suite.decode(w)
	post := body["post"].(map[string]interface{})
	return post["id"].(string)
}

func (suite *HandlersTestSuite) TestCreatePost() {
	t := suite.T()

	w := suite.request(http.MethodPost, "/api/v1/posts", suite.author.ID, gin.H{
		"content":    "studying at the #library tonight",
		"categories": []string{"study"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := suite.decode(w)
	post := body["post"].(map[string]interface{})
	assert.Equal(t, suite.author.ID, post["user_id"])
	assert.Equal(t, "studying at the #library tonight", post["content"])

	// The hashtag was extracted into a tag row.
	var tags []models.PostTag
	require.NoError(t, suite.db.Where("post_id = ?", post["id"]).Find(&tags).Error)
	require.Len(t, tags, 1)
	assert.Equal(t, "library", tags[0].Tag)
}

func (suite *HandlersTestSuite) TestCreatePostRequiresAuth() {
	w := suite.request(http.MethodPost, "/api/v1/posts", "", gin.H{"content": "hi"})
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
}

func (suite *HandlersTestSuite) TestCreatePostTooLong() {
	long := make([]rune, 501)
	for i := range long {
		long[i] = 'x'
	}
	w := suite.request(http.MethodPost, "/api/v1/posts", suite.author.ID, gin.H{"content": string(long)})
	assert.Equal(suite.T(), http.StatusUnprocessableEntity, w.Code)
}

func (suite *HandlersTestSuite) TestCreateEventNeedsDate() {
	w := suite.request(http.MethodPost, "/api/v1/posts", suite.author.ID, gin.H{
		"content":  "party",
		"is_event": true,
	})
	assert.Equal(suite.T(), http.StatusUnprocessableEntity, w.Code)
}

func (suite *HandlersTestSuite) TestCreatePostWithPoll() {
	t := suite.T()

	w := suite.request(http.MethodPost, "/api/v1/posts", suite.author.ID, gin.H{
		"content": "settle this",
		"poll": gin.H{
			"question": "tabs or spaces?",
			"options":  []string{"tabs", "spaces"},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	postID := suite.decode(w)["post"].(map[string]interface{})["id"].(string)

	w = suite.request(http.MethodGet, "/api/v1/posts/"+postID+"/poll", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	options := suite.decode(w)["options"].([]interface{})
	assert.Len(t, options, 2)
}

func (suite *HandlersTestSuite) TestFeedFollowingNewestFirst() {
	t := suite.T()
	first := suite.createPost(suite.author.ID, "first")
	second := suite.createPost(suite.author.ID, "second")

	w := suite.request(http.MethodGet, "/api/v1/feed?tab=following", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := suite.decode(w)
	items := body["items"].([]interface{})
	require.Len(t, items, 2)
	assert.Equal(t, second, items[0].(map[string]interface{})["id"])
	assert.Equal(t, first, items[1].(map[string]interface{})["id"])
}

func (suite *HandlersTestSuite) TestFeedForYouRanksEngagement() {
	t := suite.T()

	// The engaged post is the older one, so chronological order alone
	// cannot put it on top.
	popular := suite.createPost(suite.author.ID, "popular")
	_ = suite.createPost(suite.author.ID, "quiet")

	for _, u := range []string{suite.viewer.ID, suite.author.ID} {
		w := suite.request(http.MethodPost, "/api/v1/posts/"+popular+"/like", u, nil)
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := suite.request(http.MethodPost, "/api/v1/posts/"+popular+"/repost", suite.viewer.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = suite.request(http.MethodGet, "/api/v1/feed?tab=foryou", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	items := suite.decode(w)["items"].([]interface{})
	require.Len(t, items, 2)
	top := items[0].(map[string]interface{})
	assert.Equal(t, popular, top["id"])
	assert.Equal(t, float64(2), top["like_count"])
	assert.Equal(t, float64(1), top["repost_count"])
}

func (suite *HandlersTestSuite) TestFeedFollowingTab() {
	t := suite.T()
	other := suite.createProfile("other")
	mine := suite.createPost(suite.author.ID, "from followee")
	_ = suite.createPost(other.ID, "from stranger")

	w := suite.request(http.MethodPost, "/api/v1/users/"+suite.author.ID+"/follow", suite.viewer.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = suite.request(http.MethodGet, "/api/v1/feed?tab=following", suite.viewer.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	items := suite.decode(w)["items"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, mine, items[0].(map[string]interface{})["id"])

	// Anonymous following falls back to the global feed.
	w = suite.request(http.MethodGet, "/api/v1/feed?tab=following", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	items = suite.decode(w)["items"].([]interface{})
	assert.Len(t, items, 2)
}

func (suite *HandlersTestSuite) TestFeedRejectsUnknownTab() {
	w := suite.request(http.MethodGet, "/api/v1/feed?tab=bogus", "", nil)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestToggleLikeRoundTrip() {
	t := suite.T()
	postID := suite.createPost(suite.author.ID, "like me")

	w := suite.request(http.MethodPost, "/api/v1/posts/"+postID+"/like", suite.viewer.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, suite.decode(w)["active"])

	w = suite.request(http.MethodPost, "/api/v1/posts/"+postID+"/like", suite.viewer.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, suite.decode(w)["active"])
}

func (suite *HandlersTestSuite) TestToggleLikeMissingPost() {
	w := suite.request(http.MethodPost, "/api/v1/posts/00000000-0000-0000-0000-000000000000/like", suite.viewer.ID, nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestRegistrationLifecycle() {
	t := suite.T()
	eventAt := time.Now().Add(24 * time.Hour).Format(time.RFC3339)
	w := suite.request(http.MethodPost, "/api/v1/posts", suite.author.ID, gin.H{
		"content":  "workshop",
		"is_event": true,
		"event_at": eventAt,
		"seats":    1,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	eventID := suite.decode(w)["post"].(map[string]interface{})["id"].(string)

	w = suite.request(http.MethodPost, "/api/v1/posts/"+eventID+"/register", suite.viewer.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := suite.decode(w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(1), body["seats_taken"])

	// Seat exhaustion is a normal response, not an error status.
	other := suite.createProfile("late")
	w = suite.request(http.MethodPost, "/api/v1/posts/"+eventID+"/register", other.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = suite.decode(w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "no seats left", body["message"])

	w = suite.request(http.MethodDelete, "/api/v1/posts/"+eventID+"/register", suite.viewer.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, suite.decode(w)["success"])
}

func (suite *HandlersTestSuite) TestVoteEndpoint() {
	t := suite.T()
	w := suite.request(http.MethodPost, "/api/v1/posts", suite.author.ID, gin.H{
		"content": "vote",
		"poll":    gin.H{"question": "q?", "options": []string{"a", "b"}},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	postID := suite.decode(w)["post"].(map[string]interface{})["id"].(string)

	w = suite.request(http.MethodGet, "/api/v1/posts/"+postID+"/poll", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	options := suite.decode(w)["options"].([]interface{})
	optionID := options[0].(map[string]interface{})["id"].(string)

	w = suite.request(http.MethodPost, "/api/v1/posts/"+postID+"/vote", suite.viewer.ID, gin.H{"option_id": optionID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	view := suite.decode(w)
	votes := view["votes"].(map[string]interface{})
	assert.Equal(t, float64(1), votes[optionID])
	assert.Equal(t, optionID, view["my_option_id"])
}

func (suite *HandlersTestSuite) TestCommentsRoundTrip() {
	t := suite.T()
	postID := suite.createPost(suite.author.ID, "discuss")

	w := suite.request(http.MethodPost, "/api/v1/posts/"+postID+"/comments", suite.viewer.ID, gin.H{"content": "count me in"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = suite.request(http.MethodGet, "/api/v1/posts/"+postID+"/comments", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	comments := suite.decode(w)["comments"].([]interface{})
	require.Len(t, comments, 1)
	assert.Equal(t, "count me in", comments[0].(map[string]interface{})["content"])
}

func (suite *HandlersTestSuite) TestDeletePostOwnership() {
	t := suite.T()
	postID := suite.createPost(suite.author.ID, "mine")

	w := suite.request(http.MethodDelete, "/api/v1/posts/"+postID, suite.viewer.ID, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = suite.request(http.MethodDelete, "/api/v1/posts/"+postID, suite.author.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = suite.request(http.MethodGet, "/api/v1/posts/"+postID, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestCalendarExport() {
	t := suite.T()
	eventAt := time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339)
	w := suite.request(http.MethodPost, "/api/v1/posts", suite.author.ID, gin.H{
		"content":       "Career fair\nBring your CV",
		"is_event":      true,
		"event_at":      eventAt,
		"location_name": "Main Hall",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	eventID := suite.decode(w)["post"].(map[string]interface{})["id"].(string)

	w = suite.request(http.MethodGet, "/api/v1/posts/"+eventID+"/calendar.ics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/calendar")
	assert.Contains(t, w.Body.String(), "BEGIN:VCALENDAR")
	assert.Contains(t, w.Body.String(), "SUMMARY:Career fair")

	// Non-events have no calendar representation.
	plainID := suite.createPost(suite.author.ID, "not an event")
	w = suite.request(http.MethodGet, "/api/v1/posts/"+plainID+"/calendar.ics", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestProfileUpdate() {
	t := suite.T()

	w := suite.request(http.MethodPut, "/api/v1/users/me", suite.viewer.ID, gin.H{
		"full_name": "New Name",
		"campus":    "South Campus",
		"city":      "Ankara",
	})
	require.Equal(t, http.StatusOK, w.Code)
	profile := suite.decode(w)["profile"].(map[string]interface{})
	assert.Equal(t, "New Name", profile["full_name"])
	assert.Equal(t, "South Campus", profile["campus"])

	w = suite.request(http.MethodGet, "/api/v1/users/me", suite.viewer.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	profile = suite.decode(w)["profile"].(map[string]interface{})
	assert.Equal(t, "Ankara", profile["city"])
}

func (suite *HandlersTestSuite) TestLeaderboard() {
	t := suite.T()

	require.NoError(t, suite.store.AddPoints(suite.T().Context(), suite.author.ID, 10))
	require.NoError(t, suite.store.AddPoints(suite.T().Context(), suite.viewer.ID, 4))

	w := suite.request(http.MethodGet, "/api/v1/leaderboard", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	entries := suite.decode(w)["leaderboard"].([]interface{})
	require.Len(t, entries, 2)
	first := entries[0].(map[string]interface{})
	assert.Equal(t, suite.author.ID, first["user_id"])
	assert.Equal(t, float64(10), first["points"])
	assert.Equal(t, float64(1), first["rank"])
}

func (suite *HandlersTestSuite) TestReportEndpoint() {
	t := suite.T()
	postID := suite.createPost(suite.author.ID, "sketchy")

	w := suite.request(http.MethodPost, "/api/v1/posts/"+postID+"/report", suite.viewer.ID, gin.H{
		"target_type": "post",
		"reason":      "spam",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = suite.request(http.MethodPost, "/api/v1/posts/"+postID+"/report", suite.viewer.ID, gin.H{
		"target_type": "bogus",
		"reason":      "spam",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func (suite *HandlersTestSuite) TestAssistUnconfigured() {
	w := suite.request(http.MethodPost, "/api/v1/assist/translate", suite.viewer.ID, gin.H{
		"content":     "merhaba",
		"target_lang": "en",
	})
	assert.Equal(suite.T(), http.StatusServiceUnavailable, w.Code)
}

func TestHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}
