/*
 * doc.go, part of gohbond.
 *
 * Copyright 2023 Raul Mera <rauldotmeraatusachdotcl>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

/*Package hbond computes hydrogen bond population autocorrelation
functions over molecular dynamics trajectories, and the hydrogen bond
lifetimes derived from them.


	**goHBond capabilities**

    Tracks a hydrogen bond population, defined by the usual geometric
	criteria (H...A distance plus D-H...A angle), over any number of
	sampling windows laid over a trajectory, and averages the windows
	into the population autocorrelation C(t).

    Supports the continuous definition (a bond interrupted once is gone)
	and the intermittent one (bonds may break and reform), the latter
	with an optional forgiveness time.

    Fits the decay to a sum of exponentials (2 terms continuous, 3
	intermittent) and reports the amplitude-weighted, integrated
	lifetime, via gonum's Nelder-Mead plus a gradient polish.

    Reads and writes CHARMM/NAMD DCD trajectories (both endiannesses,
	unit cell blocks) and a compressed-text format, and takes any type
	satisfying its small trajectory interfaces, including the bundled
	in-memory one.

    Minimum image distances and angles in orthorhombic and triclinic
	cells.

    Counts hydrogen bonds per frame, and correlates arbitrary scalar
	series through the FFT-based acf subpackage.

Selections are plain slices of atom indexes; resolving them from a
topology, or anything resembling a selection language, is left to the
caller. All the heavy linear algebra rests on gonum, with coordinates
held in the v3 subpackage's Nx3 matrix type.*/
package hbond
