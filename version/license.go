package version

import (
	"fmt"
	"io"
)

type License struct {
	ModuleName  string
	LicenseName string
	Link        string
}

var Licenses = []License{
	{
		ModuleName:  "litehttp-go",
		LicenseName: "MIT License",
		Link:        "https://github.com/nojima/litehttp-go/blob/master/LICENSE",
	},
	{
		ModuleName:  "Go",
		LicenseName: "BSD License",
		Link:        "https://golang.org/LICENSE",
	},
	{
		ModuleName:  "aurora",
		LicenseName: "WTFPL",
		Link:        "https://github.com/logrusorgru/aurora/blob/master/LICENSE",
	},
	{
		ModuleName:  "go-isatty",
		LicenseName: "MIT License",
		Link:        "https://github.com/mattn/go-isatty/blob/master/LICENSE",
	},
	{
		ModuleName:  "getopt",
		LicenseName: "BSD License",
		Link:        "https://github.com/pborman/getopt/blob/master/LICENSE",
	},
	{
		ModuleName:  "errors",
		LicenseName: "BSD License",
		Link:        "https://github.com/pkg/errors/blob/master/LICENSE",
	},
	{
		ModuleName:  "bytefmt",
		LicenseName: "Apache License",
		Link:        "https://github.com/cloudfoundry/bytefmt/blob/master/LICENSE",
	},
	{
		ModuleName:  "gjson",
		LicenseName: "MIT License",
		Link:        "https://github.com/tidwall/gjson/blob/master/LICENSE",
	},
	{
		ModuleName:  "go-querystring",
		LicenseName: "BSD License",
		Link:        "https://github.com/google/go-querystring/blob/master/LICENSE",
	},
	{
		ModuleName:  "go-ordered-map",
		LicenseName: "Apache License",
		Link:        "https://github.com/wk8/go-ordered-map/blob/master/LICENSE",
	},
	{
		ModuleName:  "validator",
		LicenseName: "MIT License",
		Link:        "https://github.com/go-playground/validator/blob/master/LICENSE",
	},
	{
		ModuleName:  "uuid",
		LicenseName: "BSD License",
		Link:        "https://github.com/google/uuid/blob/master/LICENSE",
	},
	{
		ModuleName:  "yaml",
		LicenseName: "MIT and Apache License",
		Link:        "https://github.com/go-yaml/yaml/blob/v3/LICENSE",
	},
}

func PrintLicenses(w io.Writer) {
	for _, license := range Licenses {
		fmt.Fprintf(w, "%s:\n  %s\n  %s\n\n",
			license.ModuleName,
			license.LicenseName,
			license.Link,
		)
	}
}
