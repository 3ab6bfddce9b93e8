package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestOKPage_TotalPages(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	OKPage(c, []int{1, 2}, 41, 1, 20)

	var resp struct {
		Success bool     `json:"success"`
		Data    PageData `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	if !resp.Success {
		t.Error("期望 success=true")
	}
	if resp.Data.Pagination.TotalPages != 3 {
		t.Errorf("期望 total_pages=3，实际=%d", resp.Data.Pagination.TotalPages)
	}
}

func TestError_Envelope(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	ErrorWithDetails(c, http.StatusBadRequest, 10001, "参数校验失败", "email: required")

	if w.Code != http.StatusBadRequest {
		t.Errorf("期望 400，实际=%d", w.Code)
	}
	var resp Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Success {
		t.Error("错误响应 success 应为 false")
	}
	if resp.Error != "参数校验失败" || resp.Details != "email: required" || resp.Code != 10001 {
		t.Errorf("响应字段不符: %+v", resp)
	}
}
