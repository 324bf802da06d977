package github

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/jimezsa/ghsearch/internal/models"
)

type searchEnvelope struct {
	Data   *searchData     `json:"data"`
	Errors json.RawMessage `json:"errors"`
}

type searchData struct {
	Search *searchConnection `json:"search"`
}

type searchConnection struct {
	Nodes *[]userNode `json:"nodes"`
}

type userNode struct {
	Login     string         `json:"login"`
	Name      *string        `json:"name"`
	Bio       *string        `json:"bio"`
	Location  *string        `json:"location"`
	Followers *followerCount `json:"followers"`
}

type followerCount struct {
	TotalCount int `json:"totalCount"`
}

func decodeSearchResponse(body []byte) ([]models.User, error) {
	var envelope searchEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &ProtocolError{Reason: "decode response", Err: err}
	}

	if raw := bytes.TrimSpace(envelope.Errors); len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		queryErr := &QueryError{Raw: append(json.RawMessage{}, raw...)}
		// An errors value that is not a list of objects is still reported verbatim.
		_ = json.Unmarshal(raw, &queryErr.Errors)
		return nil, queryErr
	}

	if envelope.Data == nil || envelope.Data.Search == nil || envelope.Data.Search.Nodes == nil {
		return nil, &ProtocolError{Reason: "unexpected response structure"}
	}

	nodes := *envelope.Data.Search.Nodes
	users := make([]models.User, 0, len(nodes))
	for _, node := range nodes {
		if strings.TrimSpace(node.Login) == "" {
			continue
		}
		users = append(users, node.toUser())
	}
	return users, nil
}

func (n userNode) toUser() models.User {
	user := models.User{
		Login:    n.Login,
		Name:     n.Name,
		Bio:      n.Bio,
		Location: n.Location,
	}
	if n.Followers != nil {
		total := n.Followers.TotalCount
		user.Followers = &total
	}
	return user
}
