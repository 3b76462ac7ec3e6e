package apiclient

import "fmt"

// Folder mirrors adminapi's folderView.
type Folder struct {
	Name        string   `json:"name"`
	Path        string   `json:"path"`
	Permissions []string `json:"permissions"`
}

type folderListResponse struct {
	Folders []Folder `json:"folders"`
}

// ListFolders calls GET /api/v1/folders.
func (c *Client) ListFolders() ([]Folder, error) {
	var resp folderListResponse
	if err := c.get("/api/v1/folders", &resp); err != nil {
		return nil, err
	}
	return resp.Folders, nil
}

// GetFolder calls GET /api/v1/folders/{name}.
func (c *Client) GetFolder(name string) (*Folder, error) {
	var f Folder
	if err := c.get(fmt.Sprintf("/api/v1/folders/%s", name), &f); err != nil {
		return nil, err
	}
	return &f, nil
}
