package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/shopclip/api/internal/model"
	"github.com/shopclip/api/internal/service"
)

type stubResolver struct {
	info     *model.VideoInfo
	err      error
	lastText string
}

func (s *stubResolver) Resolve(ctx context.Context, shareText string) (*model.VideoInfo, error) {
	s.lastText = shareText
	return s.info, s.err
}

func newParseApp(xhs, douyin service.Resolver) *fiber.App {
	app := fiber.New()
	app.Post("/api/parse", NewParseHandler(xhs, douyin, validator.New()).Parse)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func parseJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return result
}

func TestParse_DispatchesDouyinLink(t *testing.T) {
	douyin := &stubResolver{info: &model.VideoInfo{
		VideoURL: "https://host/play/v1",
		Title:    "抖音视频",
		Author:   "作者",
		Platform: model.PlatformDouyin,
	}}
	xhs := &stubResolver{err: errors.New("must not be called")}
	app := newParseApp(xhs, douyin)

	resp := postJSON(t, app, "/api/parse", `{"url":"https://v.douyin.com/iABCdef/"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	result := parseJSON(t, resp)
	if result["success"] != true {
		t.Error("expected success true")
	}
	data, ok := result["data"].(map[string]interface{})
	if !ok {
		t.Fatal("expected data object")
	}
	if data["videoUrl"] != "https://host/play/v1" {
		t.Errorf("unexpected videoUrl %v", data["videoUrl"])
	}
	if douyin.lastText != "https://v.douyin.com/iABCdef/" {
		t.Errorf("douyin resolver got %q", douyin.lastText)
	}
	if xhs.lastText != "" {
		t.Error("xhs resolver should not have been called")
	}
}

func TestParse_DispatchesXHSLink(t *testing.T) {
	xhs := &stubResolver{info: &model.VideoInfo{
		VideoURL: "https://sns-video-bd.xhscdn.com/k",
		Platform: model.PlatformXiaohongshu,
	}}
	app := newParseApp(xhs, &stubResolver{err: errors.New("must not be called")})

	resp := postJSON(t, app, "/api/parse", `{"url":"https://xhslink.com/abc123"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if xhs.lastText != "https://xhslink.com/abc123" {
		t.Errorf("xhs resolver got %q", xhs.lastText)
	}
}

func TestParse_UnrecognizedPlatform(t *testing.T) {
	app := newParseApp(&stubResolver{}, &stubResolver{})

	resp := postJSON(t, app, "/api/parse", `{"url":"https://example.com/video/1"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	result := parseJSON(t, resp)
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatal("expected error object")
	}
	if errObj["code"] != "VALIDATION_ERROR" {
		t.Errorf("expected VALIDATION_ERROR, got %v", errObj["code"])
	}
}

func TestParse_MissingURL(t *testing.T) {
	app := newParseApp(&stubResolver{}, &stubResolver{})

	resp := postJSON(t, app, "/api/parse", `{}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestParse_MediaNotFound(t *testing.T) {
	douyin := &stubResolver{err: service.ErrMediaNotFound}
	app := newParseApp(&stubResolver{}, douyin)

	resp := postJSON(t, app, "/api/parse", `{"url":"https://v.douyin.com/iABCdef/"}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	result := parseJSON(t, resp)
	errObj := result["error"].(map[string]interface{})
	if errObj["code"] != "NOT_FOUND" {
		t.Errorf("expected NOT_FOUND, got %v", errObj["code"])
	}
}

func TestParse_UpstreamFetchFailure(t *testing.T) {
	douyin := &stubResolver{err: errors.New("fetch https://v.douyin.com: timeout")}
	app := newParseApp(&stubResolver{}, douyin)

	resp := postJSON(t, app, "/api/parse", `{"url":"https://v.douyin.com/iABCdef/"}`)
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.StatusCode)
	}

	result := parseJSON(t, resp)
	errObj := result["error"].(map[string]interface{})
	if errObj["code"] != "FETCH_ERROR" {
		t.Errorf("expected FETCH_ERROR, got %v", errObj["code"])
	}
}
