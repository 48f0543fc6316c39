package ui

import "github.com/pterm/pterm"

const LogoASCII = `
      ___
     /   \     x * y = k
    | AMM |  ---------------
     \___/     amm101ctl
`

func PrintBanner() {
	pterm.DefaultCenter.Println(pterm.NewRGB(98, 126, 234).Sprint(LogoASCII))
}
