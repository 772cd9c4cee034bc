package server

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/z-wentao/subhashit/pkg/progress"
	"github.com/z-wentao/subhashit/pkg/templates"
)

// NewAnimationRouter 独立的动画演示页：点击后弹窗出现，两个动画开始播放
func NewAnimationRouter(assets http.Handler, origins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(requestLogger)
	r.Use(cors.Handler(CORSOptions(origins)))

	r.Get("/", handleAnimationIndex)
	r.Post("/start", handleAnimationStart)
	r.Handle("/assets/*", assets)

	return r
}

func handleAnimationIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := templates.RenderPage(w, templates.PageAnimation, templates.PageData{
		Title:   "Futuristic AI Animation",
		Overlay: templates.RenderDemoOverlay(progress.RenderModel{}, templates.DemoAnimations),
	})
	if err != nil {
		log.Printf("❌ %v", err)
	}
}

func handleAnimationStart(w http.ResponseWriter, r *http.Request) {
	model := progress.RenderModel{
		Phase:             progress.PhaseRunning,
		OverlayVisible:    true,
		AnimationsVisible: true,
		Autoplay:          true,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(templates.RenderDemoOverlay(model, templates.DemoAnimations)))
}
