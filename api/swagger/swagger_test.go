package swagger

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

func TestRegisteredDocIsValidJSON(t *testing.T) {
	raw, err := swag.ReadDoc()
	require.NoError(t, err)

	var doc struct {
		Paths map[string]map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	assert.Contains(t, doc.Paths, "/auth/login")
	assert.Contains(t, doc.Paths["/users/profile"], "patch")
	assert.Contains(t, doc.Paths["/chat/send-message"], "post")
	assert.Contains(t, doc.Paths["/characters/{id}"], "delete")
}
