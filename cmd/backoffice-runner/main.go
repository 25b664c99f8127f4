// Command backoffice-runner performs backoffice side-effects for test flows.
package main

import "github.com/devicelab-dev/backoffice-runner/pkg/cli"

func main() {
	cli.Execute()
}
