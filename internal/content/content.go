// Package content holds the static portfolio data served by the API.
package content

import (
	"slices"
	"strings"
)

type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

type Profile struct {
	Name     string   `json:"name"`
	Title    string   `json:"title"`
	About    string   `json:"about"`
	Location string   `json:"location"`
	Links    []Link   `json:"links"`
	Skills   []string `json:"skills"`
	Services []string `json:"services"`
}

type Project struct {
	Slug    string   `json:"slug"`
	Title   string   `json:"title"`
	Summary string   `json:"summary"`
	Tags    []string `json:"tags"`
	RepoURL string   `json:"repoUrl,omitempty"`
}

var profile = Profile{
	Name:     "Zach Kordas-Potter",
	Title:    "Software Developer",
	Location: "Minnesota, USA",
	About: `I love building software that's both useful and fun, and I'm always curious about how things work behind the scenes. ` +
		`Most of my projects start with a simple idea and turn into a chance to learn something new, whether it's exploring a ` +
		`different language, experimenting with tools, or solving tricky problems. ` +
		`When I'm not coding, you'll usually find me training Muay Thai, shooting pool with friends, ` +
		`or chasing down a new challenge outside the screen.`,
	Links: []Link{
		{Label: "GitHub", URL: "https://github.com/Zachkp"},
	},
	Skills:   []string{"Go", "Python", "JavaScript", "SQL", "HTMX", "Tailwind CSS", "Docker", "Linux"},
	Services: []string{"Backend and API development", "Web applications", "Command-line tools", "Data and recommendation systems"},
}

var projects = []Project{
	{
		Slug:    "terminal-mail",
		Title:   "Terminal Mail",
		Summary: "A terminal-based email client built in Go with fuzzyfinder capabilities using the Charmbracelet TUI framework and go-imap.",
		Tags:    []string{"go", "tui", "email"},
		RepoURL: "https://github.com/Zachkp",
	},
	{
		Slug:  "terminal-music",
		Title: "Terminal Music",
		Summary: "A terminal-based music streaming application built in Go with an elegant TUI interface, leveraging yt-dlp and mpv " +
			"for seamless YouTube Music playback directly from the command line.",
		Tags:    []string{"go", "tui", "audio"},
		RepoURL: "https://github.com/Zachkp",
	},
	{
		Slug:  "game-recommender",
		Title: "Game Recommender",
		Summary: "A machine learning-powered web application that uses TF-IDF vectorization and cosine similarity to recommend games " +
			"based on content analysis, featuring interactive data visualizations and real-time filtering by user reviews and ratings.",
		Tags:    []string{"python", "machine-learning", "web"},
		RepoURL: "https://github.com/Zachkp",
	},
	{
		Slug:  "portfolio",
		Title: "Portfolio",
		Summary: "A modern, responsive portfolio website built with Go, Gin framework, and HTMX for dynamic interactions, " +
			"styled with Tailwind CSS and enhanced with Alpine.js.",
		Tags:    []string{"go", "web", "htmx"},
		RepoURL: "https://github.com/Zachkp/portfolio",
	},
}

// GetProfile returns a copy of the profile.
func GetProfile() Profile {
	p := profile
	p.Links = slices.Clone(profile.Links)
	p.Skills = slices.Clone(profile.Skills)
	p.Services = slices.Clone(profile.Services)
	return p
}

// Projects returns every project carrying tag, or all projects when tag is
// empty. Tags match case-insensitively.
func Projects(tag string) []Project {
	tag = strings.ToLower(strings.TrimSpace(tag))
	out := []Project{}
	for _, p := range projects {
		if tag == "" || slices.Contains(p.Tags, tag) {
			out = append(out, clone(p))
		}
	}
	return out
}

func ProjectBySlug(slug string) (Project, bool) {
	for _, p := range projects {
		if p.Slug == slug {
			return clone(p), true
		}
	}
	return Project{}, false
}

func clone(p Project) Project {
	p.Tags = slices.Clone(p.Tags)
	return p
}
