package httpjson_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/okian/highlights/internal/adapters/collaborators/httpjson"
	. "github.com/smartystreets/goconvey/convey"
)

func TestClient(t *testing.T) {
	Convey("Given a JSON server", t, func() {
		var gotAuth, gotBody, gotQuery string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			gotQuery = r.URL.RawQuery
			b, _ := io.ReadAll(r.Body)
			gotBody = string(b)
			switch r.URL.Path {
			case "/v1/echo":
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"value":"pong"}`))
			default:
				http.Error(w, "nope", http.StatusTeapot)
			}
		}))
		Reset(srv.Close)

		c, err := httpjson.New(srv.URL+"/v1/", httpjson.WithBearerToken("secret"))
		So(err, ShouldBeNil)

		Convey("When a request succeeds", func() {
			var out struct{ Value string }
			err := c.Do(context.Background(), http.MethodPost, "/echo", url.Values{"a": {"1"}}, map[string]string{"ping": "x"}, &out)

			Convey("Then the body, query and auth are sent and the reply decoded", func() {
				So(err, ShouldBeNil)
				So(out.Value, ShouldEqual, "pong")
				So(gotAuth, ShouldEqual, "Bearer secret")
				So(gotQuery, ShouldEqual, "a=1")
				So(gotBody, ShouldEqual, `{"ping":"x"}`)
			})
		})

		Convey("When the server rejects the request", func() {
			err := c.Do(context.Background(), http.MethodGet, "/missing", nil, nil, nil)

			Convey("Then a status error is returned", func() {
				So(httpjson.IsStatus(err, http.StatusTeapot), ShouldBeTrue)
				var se *httpjson.StatusError
				So(errors.As(err, &se), ShouldBeTrue)
				So(se.Body, ShouldEqual, "nope")
			})
		})
	})

	Convey("Given a relative base URL", t, func() {
		_, err := httpjson.New("not-a-url")
		So(errors.Is(err, httpjson.ErrInvalidBaseURL), ShouldBeTrue)
	})
}
