package contextual_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/okian/highlights/internal/adapters/collaborators/contextual"
	"github.com/okian/highlights/internal/domain/enrichment"
	. "github.com/smartystreets/goconvey/convey"
)

func chatServer(content string, seen *map[string]any) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			_ = json.NewDecoder(r.Body).Decode(seen)
		}
		body, _ := json.Marshal(map[string]any{
			"id":      "cmpl-1",
			"object":  "chat.completion",
			"model":   "test",
			"choices": []map[string]any{{"index": 0, "message": map[string]string{"role": "assistant", "content": content}, "finish_reason": "stop"}},
		})
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
}

func TestAnalyze(t *testing.T) {
	ctx := context.Background()
	req := enrichment.ContextRequest{
		VideoSource: "match-1", GameType: "soccer",
		Highlights: []enrichment.ContextItem{{ID: "h0", StartTime: 10, Duration: 5, Labels: []string{"Goal"}, Confidence: 92}},
	}

	Convey("Given a model returning fenced JSON", t, func() {
		var seen map[string]any
		srv := chatServer("```json\n{\"highlights\":[{\"id\":\"h0\",\"excitementLevel\":9,\"playType\":\"goal\",\"title\":\"Screamer\",\"targetAudience\":\"general\"}]}\n```", &seen)
		Reset(srv.Close)
		a := contextual.New("key", contextual.WithBaseURL(srv.URL+"/v1"), contextual.WithModel("test-model"))

		Convey("Then the reply is decoded and JSON mode requested", func() {
			resp, err := a.Analyze(ctx, req)
			So(err, ShouldBeNil)
			So(resp.Highlights, ShouldHaveLength, 1)
			So(resp.Highlights[0].ID, ShouldEqual, "h0")
			So(resp.Highlights[0].Title, ShouldEqual, "Screamer")
			So(seen["model"], ShouldEqual, "test-model")
			So(fmt.Sprint(seen["response_format"]), ShouldContainSubstring, "json_object")
		})
	})

	Convey("Given a model returning prose", t, func() {
		srv := chatServer("Sorry, I cannot help with that.", nil)
		Reset(srv.Close)
		a := contextual.New("key", contextual.WithBaseURL(srv.URL+"/v1"))

		Convey("Then the reply is reported malformed", func() {
			_, err := a.Analyze(ctx, req)
			So(errors.Is(err, contextual.ErrMalformedResponse), ShouldBeTrue)
		})
	})

	Convey("Given a model returning nothing", t, func() {
		srv := chatServer("   ", nil)
		Reset(srv.Close)
		a := contextual.New("key", contextual.WithBaseURL(srv.URL+"/v1"))

		Convey("Then the reply is reported empty", func() {
			_, err := a.Analyze(ctx, req)
			So(errors.Is(err, contextual.ErrEmptyResponse), ShouldBeTrue)
		})
	})
}
