package entity

// AuthState is the client-local authentication slice. It starts
// unauthenticated and only login/logout mutate it.
type AuthState struct {
	IsAuthenticated bool    `json:"isAuthenticated"`
	Username        *string `json:"username"`
}
