package api

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"
)

// HomepageContent is the static marketing content of the landing page.
type HomepageContent struct {
	Hero struct {
		Title       string `json:"title"`
		Subtitle    string `json:"subtitle"`
		Description string `json:"description"`
	} `json:"hero"`
	Features []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"features"`
}

// CarouselImage is one slide of the homepage carousel.
type CarouselImage struct {
	URL string
	Alt string
}

// Homepage fetches the landing page content.
func (c *Client) Homepage(ctx context.Context) (*HomepageContent, error) {
	var content HomepageContent
	if err := c.getJSON(ctx, "/api/content/homepage", &content); err != nil {
		return nil, err
	}

	return &content, nil
}

// CarouselImages fetches the homepage carousel slides. Only the image
// list is plucked out of the payload; the rest of the carousel config is
// presentation detail.
func (c *Client) CarouselImages(ctx context.Context) ([]CarouselImage, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/content/carousel-images", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var images []CarouselImage
	gjson.GetBytes(body, "images").ForEach(func(_, img gjson.Result) bool {
		images = append(images, CarouselImage{
			URL: img.Get("url").String(),
			Alt: img.Get("alt").String(),
		})

		return true
	})

	return images, nil
}
