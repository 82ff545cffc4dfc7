// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Run groups targets that drive the pipelines through the built CLI.
type Run mg.Namespace

// Search runs a web search and saves the results to output/search.yaml.
func (Run) Search(query string) error {
	mg.Deps(Build)
	return sh.RunV(binPath(), "search", query, "--save", "output/search.yaml")
}

// Fetch reads the pages saved by run:search.
func (Run) Fetch() error {
	mg.Deps(Build)
	return sh.RunV(binPath(), "fetch", "--from", "output/search.yaml")
}

// Courses runs the course-matching pipeline for a goal file.
func (Run) Courses(goal string) error {
	mg.Deps(Build)
	return sh.RunV(binPath(), "courses", "--goal", goal)
}

// Deadline runs the deadline pipeline for a goal file and writes the reminder
// to output/calendar.
func (Run) Deadline(goal string) error {
	mg.Deps(Build)
	return sh.RunV(binPath(), "deadline", "--goal", goal, "--calendar-dir", "output/calendar")
}

// Partners runs the partner pipeline for a goal file.
func (Run) Partners(goal string) error {
	mg.Deps(Build)
	return sh.RunV(binPath(), "partners", "--goal", goal)
}

// Plan runs the application plan pipeline for a goal file.
func (Run) Plan(goal string) error {
	mg.Deps(Build)
	return sh.RunV(binPath(), "plan", "--goal", goal)
}

// Insights runs the insights pipeline for a university and subject.
func (Run) Insights(university, subject string) error {
	mg.Deps(Build)
	return sh.RunV(binPath(), "insights", university, subject)
}

// Serve starts the HTTP API.
func (Run) Serve() error {
	mg.Deps(Build)
	return sh.RunV(binPath(), "serve")
}
