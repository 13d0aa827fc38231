package main

import (
	"fmt"
	"log"

	"github.com/tsrajpurohit/AdvDec/internal/release"
)

const (
	Owner = "tsrajpurohit" // Owner of the GitHub repo
	Repo  = "AdvDec"       // Repo on GitHub
)

func checkLatestVersion() {
	checker := release.NewChecker(Owner, Repo)
	rel, err := checker.Latest()
	if err != nil {
		log.Printf("Unable to get version information: %s\n", err.Error())
		return
	}

	if release.UpdateAvailable(VersionNumber, rel.TagName) {
		fmt.Printf("!\n! Update available (version: %s)\n! Download at: %s\n!\n", rel.TagName, rel.HTMLURL)
	}
}
