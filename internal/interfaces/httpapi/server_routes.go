package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerAuthorizedRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	registerAuthorizedMatchRoutes(mux, handler, verifier)
	registerAuthorizedRankingRoutes(mux, handler, verifier)
}

func registerAuthorizedMatchRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/matches", RequireAuth(verifier, http.HandlerFunc(handler.CreateMatch)))
	mux.Handle("GET /v1/matches/{matchID}", RequireAuth(verifier, http.HandlerFunc(handler.GetMatch)))
	mux.Handle("PATCH /v1/matches/{matchID}", RequireAuth(verifier, http.HandlerFunc(handler.UpdateMatch)))
	mux.Handle("DELETE /v1/matches/{matchID}", RequireAuth(verifier, http.HandlerFunc(handler.DeleteMatch)))
	mux.Handle("POST /v1/matches/{matchID}/confirm", RequireAuth(verifier, http.HandlerFunc(handler.ConfirmAttendance)))
	mux.Handle("POST /v1/matches/{matchID}/cancel-attendance", RequireAuth(verifier, http.HandlerFunc(handler.CancelAttendance)))
	mux.Handle("POST /v1/matches/{matchID}/finish", RequireAuth(verifier, http.HandlerFunc(handler.FinishMatch)))
	mux.Handle("GET /v1/groups/{groupID}/matches", RequireAuth(verifier, http.HandlerFunc(handler.ListGroupMatches)))
}

func registerAuthorizedRankingRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("GET /v1/rankings", RequireAuth(verifier, http.HandlerFunc(handler.GlobalRanking)))
	mux.Handle("GET /v1/groups/{groupID}/rankings", RequireAuth(verifier, http.HandlerFunc(handler.GroupRanking)))
}
