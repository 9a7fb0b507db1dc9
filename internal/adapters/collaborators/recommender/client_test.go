package recommender_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/okian/highlights/internal/adapters/collaborators/httpjson"
	"github.com/okian/highlights/internal/adapters/collaborators/recommender"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRecommend(t *testing.T) {
	Convey("Given a recommendation service", t, func() {
		var path, limit string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path = r.URL.Path
			limit = r.URL.Query().Get("limit")
			if r.URL.Path == "/users/ghost/recommendations" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_, _ = w.Write([]byte(`{"highlightIds":["b","a"]}`))
		}))
		Reset(srv.Close)

		c, err := recommender.New(srv.URL, recommender.WithLimit(20))
		So(err, ShouldBeNil)

		Convey("Then ids come back in service order", func() {
			ids, err := c.Recommend(context.Background(), "fan 1")
			So(err, ShouldBeNil)
			So(ids, ShouldResemble, []string{"b", "a"})
			So(path, ShouldEqual, "/users/fan 1/recommendations")
			So(limit, ShouldEqual, "20")
		})

		Convey("Then service errors surface", func() {
			_, err := c.Recommend(context.Background(), "ghost")
			So(httpjson.IsStatus(err, http.StatusNotFound), ShouldBeTrue)
		})
	})
}
