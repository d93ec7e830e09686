package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dormitory-backend/config"
	"dormitory-backend/internal/guard"
	"dormitory-backend/internal/lock"
	"dormitory-backend/internal/occupancy"
	"dormitory-backend/internal/registry"
	"dormitory-backend/internal/search"
	"dormitory-backend/internal/stats"
	"dormitory-backend/internal/store"
	"dormitory-backend/internal/testutil"
)

func newTestRouter(t *testing.T, webpushOptions *webpush.Options) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	st := store.NewGormStore(testutil.NewSQLite(t))
	locker := lock.NewKeyedMutex()
	h := NewHandler(Services{
		Store:    st,
		Registry: registry.New(st, locker),
		Guards:   guard.New(st, locker),
		Engine:   occupancy.NewEngine(st, locker),
		Stats:    stats.New(st),
		Search:   search.New(st),
	}, webpushOptions)
	return NewRouter(h, config.ServerConfig{RateLimitPerSec: 1000, RateLimitBurst: 1000, CacheTTLSeconds: 60})
}

func call(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func createID(t *testing.T, r http.Handler, path string, body any) int64 {
	t.Helper()
	w := call(t, r, http.MethodPost, path, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return int64(decode(t, w)["id"].(float64))
}

type world struct {
	room, male1, male2, female, cmd int64
}

func seed(t *testing.T, r http.Handler) world {
	t.Helper()
	building := createID(t, r, "/api/buildings", gin.H{"number": "1", "address": "ул. Ленина, 1", "floors_count": 5})
	student := func(surname, gender string) int64 {
		return createID(t, r, "/api/students", gin.H{
			"surname": surname, "name": "Тест", "gender": gender, "phone": "89001234567", "group": "ИВТ-21",
		})
	}
	return world{
		room:   createID(t, r, "/api/rooms", gin.H{"building_id": building, "floor": 2, "number": "201", "capacity": 2}),
		male1:  student("Иванов", "М"),
		male2:  student("Смирнов", "М"),
		female: student("Петрова", "Ж"),
		cmd:    createID(t, r, "/api/commandants", gin.H{"surname": "Орлов", "name": "Олег", "phone": "89007654321"}),
	}
}

func admit(t *testing.T, r http.Handler, w world, student int64) *httptest.ResponseRecorder {
	t.Helper()
	return call(t, r, http.MethodPost, "/api/checkins", gin.H{
		"student_id": student, "room_id": w.room, "commandant_id": w.cmd, "date": "2024-09-01",
	})
}

func TestCheckinFlow(t *testing.T) {
	r := newTestRouter(t, nil)
	w := seed(t, r)

	resp := admit(t, r, w, w.male1)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	checkinID := int64(decode(t, resp)["id"].(float64))

	resp = admit(t, r, w, w.female)
	assert.Equal(t, http.StatusConflict, resp.Code)
	body := decode(t, resp)
	assert.Equal(t, "GENDER_MISMATCH", body["code"])
	assert.Equal(t, "М", body["details"].(map[string]any)["room_gender"])

	resp = call(t, r, http.MethodGet, fmt.Sprintf("/api/rooms/%d/occupancy", w.room), nil)
	require.Equal(t, http.StatusOK, resp.Code)
	occ := decode(t, resp)
	assert.Equal(t, 1.0, occ["occupancy"])
	assert.Equal(t, 1.0, occ["free"])
	assert.Equal(t, map[string]any{"kind": "single", "gender": "М"}, occ["composition"])

	require.Equal(t, http.StatusCreated, admit(t, r, w, w.male2).Code)
	resp = admit(t, r, w, w.female)
	assert.Equal(t, "ROOM_FULL", decode(t, resp)["code"])

	resp = call(t, r, http.MethodGet, "/api/checkins/active", nil)
	var active []map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &active))
	assert.Len(t, active, 2)

	release := gin.H{"checkin_id": checkinID, "commandant_id": w.cmd, "date": "2024-12-01"}
	resp = call(t, r, http.MethodPost, "/api/checkouts", release)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	resp = call(t, r, http.MethodPost, "/api/checkouts", release)
	assert.Equal(t, http.StatusConflict, resp.Code)
	assert.Equal(t, "ALREADY_CHECKED_OUT", decode(t, resp)["code"])

	resp = call(t, r, http.MethodGet, fmt.Sprintf("/api/rooms/%d/occupancy", w.room), nil)
	assert.Equal(t, 1.0, decode(t, resp)["occupancy"], "cached occupancy must be flushed by the checkout")

	resp = call(t, r, http.MethodGet, "/api/checkouts", nil)
	var outs []map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &outs))
	assert.Len(t, outs, 1)
}

func TestDeleteGuards(t *testing.T) {
	r := newTestRouter(t, nil)
	w := seed(t, r)
	require.Equal(t, http.StatusCreated, admit(t, r, w, w.male1).Code)

	resp := call(t, r, http.MethodDelete, fmt.Sprintf("/api/rooms/%d", w.room), nil)
	assert.Equal(t, http.StatusConflict, resp.Code)
	details := decode(t, resp)["details"].(map[string]any)
	assert.Equal(t, "checkins", details["relation"])

	resp = call(t, r, http.MethodDelete, fmt.Sprintf("/api/students/%d", w.female), nil)
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = call(t, r, http.MethodGet, fmt.Sprintf("/api/students/%d", w.female), nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "NOT_FOUND", decode(t, resp)["code"])
}

func TestRequestErrors(t *testing.T) {
	r := newTestRouter(t, nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		field  string
	}{
		{"bad id", http.MethodGet, "/api/students/abc", nil, http.StatusBadRequest, "id"},
		{"missing", http.MethodGet, "/api/rooms/42", nil, http.StatusNotFound, ""},
		{"invalid student", http.MethodPost, "/api/students", gin.H{"surname": "A"}, http.StatusBadRequest, "surname"},
		{"overlong surname", http.MethodPost, "/api/students", gin.H{
			"surname": strings.Repeat("Ы", 200), "name": "Тест", "gender": "М", "phone": "89001234567", "group": "ИВТ-21",
		}, http.StatusBadRequest, "surname"},
		{"bad building filter", http.MethodGet, "/api/rooms?building_id=x", nil, http.StatusBadRequest, "building_id"},
		{"bad checkin date", http.MethodPost, "/api/checkins", gin.H{"student_id": 1, "room_id": 1, "commandant_id": 1, "date": "1 Sep"}, http.StatusBadRequest, "date"},
		{"malformed json", http.MethodPost, "/api/buildings", "not an object", http.StatusBadRequest, "body"},
		{"empty search", http.MethodGet, "/api/students/search?q=", nil, http.StatusBadRequest, "q"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := call(t, r, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, resp.Code, resp.Body.String())
			if tt.field != "" {
				assert.Contains(t, decode(t, resp)["details"], tt.field)
			}
		})
	}
}

func TestReports(t *testing.T) {
	r := newTestRouter(t, nil)
	w := seed(t, r)
	require.Equal(t, http.StatusCreated, admit(t, r, w, w.male1).Code)

	resp := call(t, r, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	s := decode(t, resp)
	assert.Equal(t, 3.0, s["total_students"])
	assert.Equal(t, 50.0, s["occupancy_rate"])

	resp = call(t, r, http.MethodGet, "/api/export/checkins.csv", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "text/csv; charset=utf-8", resp.Header().Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(resp.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "Иванов Тест")

	resp = call(t, r, http.MethodGet, "/api/export/students.csv", nil)
	assert.Len(t, strings.Split(strings.TrimSpace(resp.Body.String()), "\n"), 4)

	resp = call(t, r, http.MethodGet, "/api/students/search?q=smirnov", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	matches := decode(t, resp)["matches"].([]any)
	require.NotEmpty(t, matches)
	assert.Equal(t, "Смирнов", matches[0].(map[string]any)["student"].(map[string]any)["surname"])
}

func TestSubscriptions(t *testing.T) {
	r := newTestRouter(t, &webpush.Options{VAPIDPublicKey: "public-key"})
	w := seed(t, r)

	resp := call(t, r, http.MethodPut, "/api/subscriptions", nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	sub := gin.H{"endpoint": "https://push.example/abc", "p256dh": "k", "auth": "a", "subscribed_rooms": []int64{w.room, 999}}
	resp = call(t, r, http.MethodPut, "/api/subscriptions", sub)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	resp = call(t, r, http.MethodGet, "/api/subscriptions?endpoint=https://push.example/abc", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, fmt.Sprintf(`{"subscribed_rooms":[%d]}`, w.room), resp.Body.String())

	resp = call(t, r, http.MethodDelete, "/api/subscriptions", gin.H{"endpoint": "https://push.example/abc"})
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = call(t, r, http.MethodGet, "/api/subscriptions?endpoint=https://push.example/abc", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = call(t, r, http.MethodGet, "/api/vapid_public_key", nil)
	assert.JSONEq(t, `{"public_key":"public-key"}`, resp.Body.String())
}

func TestVAPIDKeyMissing(t *testing.T) {
	r := newTestRouter(t, nil)
	resp := call(t, r, http.MethodGet, "/api/vapid_public_key", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
}
