package env

import "path/filepath"

// Load resolves the variable map for a single request. dir is the directory
// the request file lives in. Five layers, lowest to highest:
//
//  1. defaults: the file's [vars] block, with any playlist defaults already
//     layered underneath by the caller
//  2. .env
//  3. .env.<name> (only when an environment name is active)
//  4. .env.local
//  5. overrides: command-line values plus updates propagated by earlier steps
//
// Later layers win per key. Every merge yields a fresh map; no input map is
// mutated.
func Load(dir, name string, defaults, overrides map[string]string) (map[string]string, error) {
	merged := Merge(nil, defaults)

	base, err := ReadEnvFile(filepath.Join(dir, ".env"))
	if err != nil {
		return nil, err
	}
	merged = Merge(merged, base)

	if name != "" {
		named, err := ReadEnvFile(filepath.Join(dir, ".env."+name))
		if err != nil {
			return nil, err
		}
		merged = Merge(merged, named)
	}

	local, err := ReadEnvFile(filepath.Join(dir, ".env.local"))
	if err != nil {
		return nil, err
	}
	merged = Merge(merged, local)

	return Merge(merged, overrides), nil
}

// Merge layers over on top of base into a fresh map. Nil inputs are fine.
func Merge(base, over map[string]string) map[string]string {
	result := make(map[string]string, len(base)+len(over))
	for k, v := range base {
		result[k] = v
	}
	for k, v := range over {
		result[k] = v
	}
	return result
}
