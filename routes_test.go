package portal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRouteTable(t *testing.T) {
	table := RouteTable(defaultRoutes(), defaultViews())

	byName := map[string]Route{}
	for _, r := range table {
		byName[r.Name] = r
	}

	assert.Equal(t, "/signin", byName["sign-in"].Path)
	assert.Equal(t, "signin", byName["sign-in"].View)
	assert.True(t, byName["dashboard"].Protected)
	assert.True(t, byName["profile"].Protected)
	assert.False(t, byName["two-factor"].Protected)
	assert.Equal(t, "/*", table[len(table)-1].Path)
}

func TestRoutesProtected(t *testing.T) {
	routes := defaultRoutes()

	assert.True(t, routes.Protected("/dashboard"))
	assert.True(t, routes.Protected("/dashboard/settings"))
	assert.True(t, routes.Protected("/profile"))
	assert.False(t, routes.Protected("/signin"))
	assert.False(t, routes.Protected("/"))
}
