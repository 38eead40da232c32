package api

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupingRuleHandler_Create(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	// 目标分类已存在
	mock.ExpectQuery("SELECT .* FROM `categories`").
		WithArgs("Dining").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "user_id", "is_global", "created_at", "updated_at", "deleted_at"}).
			AddRow(5, "Dining", 1, false, time.Now(), time.Now(), nil))

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `grouping_rules`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.POST("/grouping-rules", NewGroupingRuleHandler().Create)

	body := `{"criterion":"restaurant","category_name":"Dining"}`
	req := httptest.NewRequest("POST", "/grouping-rules", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "restaurant", data["criterion"])
	assert.Equal(t, "Dining", data["category_name"])
	assert.Equal(t, true, data["is_active"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupingRuleHandler_Create_CreatesMissingCategory(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	// 目标分类不存在
	mock.ExpectQuery("SELECT .* FROM `categories`").
		WithArgs("NewCat").
		WillReturnRows(sqlmock.NewRows([]string{}))

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `categories`").
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectCommit()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `grouping_rules`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.POST("/grouping-rules", NewGroupingRuleHandler().Create)

	body := `{"criterion":"taxi","category_name":"NewCat"}`
	req := httptest.NewRequest("POST", "/grouping-rules", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupingRuleHandler_Create_EmptyCriterion(t *testing.T) {
	_, cleanup := setupMockDB(t)
	defer cleanup()

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.POST("/grouping-rules", NewGroupingRuleHandler().Create)

	body := `{"criterion":"   ","category_name":"Dining"}`
	req := httptest.NewRequest("POST", "/grouping-rules", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 400, w.Code)
}

func TestGroupingRuleHandler_List(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `grouping_rules`").
		WithArgs(uint(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "criterion", "category_id", "is_active", "created_at"}).
			AddRow(1, 1, "restaurant", 5, true, time.Now()).
			AddRow(2, 1, "taxi", 6, false, time.Now()))

	// Preload 分类
	mock.ExpectQuery("SELECT .* FROM `categories`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "user_id", "is_global", "created_at", "updated_at", "deleted_at"}).
			AddRow(5, "Dining", 1, false, time.Now(), time.Now(), nil).
			AddRow(6, "Transport", 1, false, time.Now(), time.Now(), nil))

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.GET("/grouping-rules", NewGroupingRuleHandler().List)

	req := httptest.NewRequest("GET", "/grouping-rules", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].([]interface{})
	require.Len(t, data, 2)
	first := data[0].(map[string]interface{})
	assert.Equal(t, "restaurant", first["criterion"])
	assert.Equal(t, "Dining", first["category_name"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupingRuleHandler_Update_NotFound(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `grouping_rules`").
		WillReturnRows(sqlmock.NewRows([]string{}))

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.PUT("/grouping-rules/:id", NewGroupingRuleHandler().Update)

	body := `{"is_active":false}`
	req := httptest.NewRequest("PUT", "/grouping-rules/99", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 404, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
