// Package versions resolves installed and latest versions for tracked
// packages and classifies the gap between them.
//
// The latest version comes from the package's git remote: `git ls-remote
// --tags <base>/<package>.git`, keeping only v-prefixed semantic version tags
// and taking the semver maximum. The installed version comes from a local
// probe (`pip show <package>` by default). Results are cached in the
// verscache JSON file so repeated checks stay off the network until the TTL
// lapses.
package versions
