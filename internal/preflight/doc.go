// Package preflight provides readiness checks for the paths, programs and
// remote services zxmeta depends on.
//
// These checks run in two contexts:
//   - "zxmeta generate" calls RunAll before scanning. Any failed check is a
//     setup error: the run stops before a file is touched and exits non-zero.
//   - The CLI "zxmeta status" command uses CheckServices to display remote
//     service health alongside the local checks.
package preflight
