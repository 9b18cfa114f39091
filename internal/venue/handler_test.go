package venue

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func setupRouter(svc Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(svc)
	r := gin.New()
	r.POST("/admin/venues", h.CreateVenue)
	r.GET("/venues", h.ListVenues)
	r.POST("/admin/venues/:venueID/courts", h.CreateCourt)
	r.GET("/venues/:venueID/courts", h.ListCourts)
	r.GET("/courts/:courtID", h.GetCourt)
	return r
}

func TestHandler_CreateVenue(t *testing.T) {
	repo := new(MockRepository)
	repo.On("CreateVenue", mock.Anything, "Club", "Street").Return(&Venue{ID: 3, Name: "Club"}, nil)
	r := setupRouter(NewService(repo))

	req := httptest.NewRequest(http.MethodPost, "/admin/venues", bytes.NewBufferString(`{"name":"Club","address":"Street"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"id":3`)
}

func TestHandler_CreateVenue_MissingFields(t *testing.T) {
	r := setupRouter(NewService(new(MockRepository)))

	req := httptest.NewRequest(http.MethodPost, "/admin/venues", bytes.NewBufferString(`{"name":"Club"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Address is required")
}

func TestHandler_CreateCourt_BadSurface(t *testing.T) {
	r := setupRouter(NewService(new(MockRepository)))

	req := httptest.NewRequest(http.MethodPost, "/admin/venues/1/courts", bytes.NewBufferString(`{"name":"C1","surface":"ice"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_GetCourt_NotFound(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetCourt", mock.Anything, 4).Return(nil, ErrCourtNotFound)
	r := setupRouter(NewService(repo))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/courts/4", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "court not found")
}
