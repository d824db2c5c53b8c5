// Generates the mus-go serializers for the core record types. Run from
// the repo root or via go:generate in core.
package main

import (
	"os"
	"reflect"
	"strings"

	musgen "github.com/mus-format/musgen-go/mus"
	genops "github.com/mus-format/musgen-go/options/generate"
	structops "github.com/mus-format/musgen-go/options/struct"
	typeops "github.com/mus-format/musgen-go/options/type"
	"github.com/poiesic/newsbrief/core"
)

func must(err error) {
	if err != nil {
		panic(err)
	}
}

func main() {
	cwd, err := os.Getwd()
	must(err)
	// go:generate runs inside core; the output path below assumes root
	if strings.HasSuffix(cwd, "core") {
		must(os.Chdir(".."))
	}

	g, err := musgen.NewCodeGenerator(
		genops.WithPkgPath("github.com/poiesic/newsbrief/core"),
	)
	must(err)

	g.AddDefinedType(reflect.TypeFor[core.ID]())

	// Timestamps travel as Unix micros
	asMicros := typeops.WithTimeUnit(typeops.Micro)

	must(g.AddStruct(reflect.TypeFor[core.Article](),
		structops.WithField(), // Title
		structops.WithField(), // Description
		structops.WithField(), // Content
		structops.WithField(), // URL
		structops.WithField(asMicros), // PublishedAt
		structops.WithField(), // Source
		structops.WithField(), // Category
		structops.WithField(), // ImageURL
	))

	must(g.AddStruct(reflect.TypeFor[core.EnrichedArticle](),
		structops.WithField(), // Id
		structops.WithField(), // Article
		structops.WithField(), // Summary
		structops.WithField(), // Vector
		structops.WithField(asMicros), // InsertedAt
		structops.WithField(asMicros), // UpdatedAt
	))

	out, err := g.Generate()
	must(err)
	must(os.WriteFile("./core/records_mus.gen.go", out, 0644))
}
