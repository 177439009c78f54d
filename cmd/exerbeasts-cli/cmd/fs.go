package cmd

import "github.com/spf13/afero"

// appFs is where commands read catalog and strategy files. Tests swap in a MemMapFs.
var appFs afero.Fs = afero.NewOsFs()
